package authflow

// Update is one UI-consumable status notification. Updates leave the
// controller in the order the underlying transitions happen; the foreground
// loop is their only consumer and no worker goroutine touches UI state
// directly.
type Update struct {
	SessionID     string
	Status        Status
	Message       string
	SignInEnabled bool
	Spinner       bool
}
