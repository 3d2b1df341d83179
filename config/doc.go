// Package config loads a goAuthClient.Config from YAML files, a .env file
// and GOAUTHCLIENT_* environment variables.
//
// Sources are applied over DefaultConfig in this order, later ones winning:
//
//  1. defaults
//  2. YAML file
//  3. .env file (only variables not already set in the process)
//  4. environment
//
// Environment keys are GOAUTHCLIENT_<SECTION>_<KEY>, for example
// GOAUTHCLIENT_INACTIVITY_TIMEOUT=10m or GOAUTHCLIENT_TRANSPORT_PATHS_LOGIN.
// List values such as inactivity events are comma separated.
//
// Load does not validate; pass the result to Builder.WithConfig and let
// Build reject it, or call Validate yourself.
package config
