/*
Package navigator implements the Algorithm State Container and the Step Navigator.

A Navigator owns one Container (configuration plus write-once trace) and exposes
the configuring → loading → running state machine used by every front end:

	nav := navigator.New(def, cfg, navigator.WithTickInterval(250*time.Millisecond))
	nav.Start(ctx)
	if err := nav.Wait(ctx); err != nil {
		// status is error; the reason is also in nav.View().Error
	}
	nav.Forward()
	nav.Play()

Bind turns a typed ports.Definition into a registry-friendly ports.Algorithm.
*/
package navigator
