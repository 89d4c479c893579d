/*
Package mlens builds step-by-step traces of classic machine learning
algorithms and lets you scrub through them like a video.

Each algorithm (K-Means, KNN, linear regression, feed-forward networks,
autoencoders, SVM and gradient boosting) is simulated to termination once, up
front. The result is an immutable trace: a list of steps, each carrying a
snapshot of the algorithm state plus a title and a Markdown description.
A session then navigates that trace forward, backward, to an index, or on a
timer.

# Concept

The library separates three things:

  - Definitions (pkg/algorithms/...) are pure: configuration in, trace out.
    All randomness comes from a seed, so the same seed and parameters always
    produce the same trace.
  - The navigator (pkg/navigator) owns one trace and a cursor over it, with
    the configuring, loading, running and error phases.
  - Adapters (HTTP, MCP, CLI) drive sessions through the Engine.

# Usage

	eng := mlens.New()
	defer eng.Close()

	h, err := eng.NewSession("kmeans", params.Values{"k": 4}, 42)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	h.Session.Start(ctx)
	if err := h.Session.Wait(ctx); err != nil {
		log.Fatal(err)
	}

	for view := h.Session.View(); ; view = h.Session.View() {
		fmt.Println(view.Step.Title)
		if view.AtEnd() {
			break
		}
		h.Session.Forward()
	}
*/
package mlens
