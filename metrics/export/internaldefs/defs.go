package internaldefs

import (
	goAuthClient "github.com/MrEthical07/goAuthClient"
)

// CounterDef names one engine counter for exporters.
type CounterDef struct {
	ID   goAuthClient.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram for exporters.
type HistogramDef struct {
	ID   goAuthClient.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: goAuthClient.MetricLoginSuccess, Name: "goauthclient_login_success_total", Help: "Successful logins."},
	{ID: goAuthClient.MetricLoginFailure, Name: "goauthclient_login_failure_total", Help: "Rejected or failed logins."},
	{ID: goAuthClient.MetricSubmitRateLimited, Name: "goauthclient_submit_rate_limited_total", Help: "Credential submissions refused by the local throttle."},
	{ID: goAuthClient.MetricOperationInProgress, Name: "goauthclient_operation_in_progress_total", Help: "Submissions refused because the same operation was in flight."},
	{ID: goAuthClient.MetricTwoFactorRequired, Name: "goauthclient_two_factor_required_total", Help: "Logins that required a 2FA code."},
	{ID: goAuthClient.MetricTwoFactorSuccess, Name: "goauthclient_two_factor_success_total", Help: "Successful 2FA verifications."},
	{ID: goAuthClient.MetricTwoFactorFailure, Name: "goauthclient_two_factor_failure_total", Help: "Failed 2FA verifications."},
	{ID: goAuthClient.MetricPasswordChangeRequired, Name: "goauthclient_password_change_required_total", Help: "Logins that required a password change."},
	{ID: goAuthClient.MetricPasswordChangeSuccess, Name: "goauthclient_password_change_success_total", Help: "Completed forced password changes."},
	{ID: goAuthClient.MetricPasswordChangeFailure, Name: "goauthclient_password_change_failure_total", Help: "Failed forced password changes."},
	{ID: goAuthClient.MetricRegisterSuccess, Name: "goauthclient_register_success_total", Help: "Successful registrations."},
	{ID: goAuthClient.MetricRegisterFailure, Name: "goauthclient_register_failure_total", Help: "Failed registrations."},
	{ID: goAuthClient.MetricRefreshSuccess, Name: "goauthclient_refresh_success_total", Help: "Successful token refreshes."},
	{ID: goAuthClient.MetricRefreshFailure, Name: "goauthclient_refresh_failure_total", Help: "Failed token refreshes."},
	{ID: goAuthClient.MetricSessionEstablished, Name: "goauthclient_session_established_total", Help: "Sessions created by login or registration."},
	{ID: goAuthClient.MetricSessionRestored, Name: "goauthclient_session_restored_total", Help: "Sessions restored at startup."},
	{ID: goAuthClient.MetricSessionDiscarded, Name: "goauthclient_session_discarded_total", Help: "Stored sessions discarded as invalid."},
	{ID: goAuthClient.MetricSessionQuarantined, Name: "goauthclient_session_quarantined_total", Help: "Stored sessions cleared because a password change was pending."},
	{ID: goAuthClient.MetricLogout, Name: "goauthclient_logout_total", Help: "Manual logouts."},
	{ID: goAuthClient.MetricLogoutInactivity, Name: "goauthclient_logout_inactivity_total", Help: "Logouts triggered by inactivity."},
	{ID: goAuthClient.MetricLogoutNotifyFailure, Name: "goauthclient_logout_notify_failure_total", Help: "Logouts the service could not be told about."},
	{ID: goAuthClient.MetricInactivityWarning, Name: "goauthclient_inactivity_warning_total", Help: "Inactivity warnings shown."},
	{ID: goAuthClient.MetricProfileUpdateSuccess, Name: "goauthclient_profile_update_success_total", Help: "Successful profile updates."},
	{ID: goAuthClient.MetricProfileUpdateFailure, Name: "goauthclient_profile_update_failure_total", Help: "Failed profile updates."},
	{ID: goAuthClient.MetricGuardRender, Name: "goauthclient_guard_render_total", Help: "Route guard decisions that rendered."},
	{ID: goAuthClient.MetricGuardRedirect, Name: "goauthclient_guard_redirect_total", Help: "Route guard decisions that redirected."},
	{ID: goAuthClient.MetricGuardBlocked, Name: "goauthclient_guard_blocked_total", Help: "Route guard decisions that showed the blocked notice."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goAuthClient.MetricRequestLatency, Name: "goauthclient_request_latency_seconds", Help: "Authentication service call latency."},
}

// TelemetryDroppedName is the counter of telemetry events dropped for
// backpressure.
const TelemetryDroppedName = "goauthclient_telemetry_dropped_total"

// TelemetryDroppedHelp describes TelemetryDroppedName.
const TelemetryDroppedHelp = "Telemetry events dropped due to dispatcher backpressure."

// The session state gauge reports 1 for the engine's current lifecycle
// state, labelled by StateLabel. Only sources implementing StateSource
// produce it.
const (
	SessionStateName = "goauthclient_session_state"
	SessionStateHelp = "Current session lifecycle state."
	StateLabel       = "state"
)

// StateSource is a metrics source that also knows the lifecycle state.
// *goAuthClient.Engine implements it.
type StateSource interface {
	State() goAuthClient.State
}

// SourceState returns the state of src when it implements StateSource.
func SourceState(src any) (goAuthClient.State, bool) {
	ss, ok := src.(StateSource)
	if !ok {
		return 0, false
	}
	return ss.State(), true
}

// HistogramUpperBounds are the finite bucket bounds in seconds.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// HistogramBounds is HistogramUpperBounds as le labels plus +Inf.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is HistogramBounds usable in instrument names.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed-size array, padding with zeros.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
