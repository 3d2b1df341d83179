package flows

// Deps groups flow dependency sets. The root engine builds this once and
// delegates methods to the matching flow.
type Deps struct {
	Establish EstablishFunc
	Refresh   RefreshDeps
	Logout    LogoutDeps
}
