package xgboost

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/aretw0/mlens/internal/solver/gbt"
	"github.com/aretw0/mlens/pkg/domain"
)

// TreeNode is a node of a fitted regression tree.
type TreeNode = gbt.Node

// Request is what a Booster is asked to fit.
type Request struct {
	TrainingPoints []DataPoint
	Boundary       []domain.Coords2D
	MaxDepth       int
	LearningRate   float64
	NumTrees       int
}

// Result holds the artefacts sliced into steps. Only Boundary is required;
// boosters that cannot expose intermediate rounds leave the rest empty.
type Result struct {
	Boundary   []Prediction
	FirstRound []Prediction
	Residuals  []float64
	FirstTree  *TreeNode
}

// Booster fits a gradient-boosted ensemble. The trace builder treats it as a
// black box.
type Booster interface {
	Boost(ctx context.Context, req Request) (Result, error)
}

// Identifier is implemented by boosters that can name the model they fit.
// Boosters with equal identifiers must produce equal results.
type Identifier interface {
	BoosterID() string
}

// BoosterID names b for trace caching. Boosters without an Identifier are
// named by their type.
func BoosterID(b Booster) string {
	if id, ok := b.(Identifier); ok {
		return id.BoosterID()
	}
	return fmt.Sprintf("%T", b)
}

// LocalBooster trains in process with a binary logistic objective.
type LocalBooster struct{}

func (LocalBooster) BoosterID() string { return "local" }

func (LocalBooster) Boost(ctx context.Context, req Request) (Result, error) {
	x := make([][]float64, len(req.TrainingPoints))
	y := make([]float64, len(req.TrainingPoints))
	for i, p := range req.TrainingPoints {
		x[i] = []float64{p.Coords.X, p.Coords.Y}
		if p.Label == 1 {
			y[i] = 1
		}
	}

	params := gbt.DefaultParams()
	params.NumTrees = req.NumTrees
	params.MaxDepth = req.MaxDepth
	params.LearningRate = req.LearningRate
	model, err := gbt.Train(ctx, x, y, params)
	if err != nil {
		return Result{}, err
	}

	predict := func(k int) []Prediction {
		out := make([]Prediction, len(req.Boundary))
		for i, c := range req.Boundary {
			out[i] = Prediction{X: c.X, Y: c.Y, Prediction: model.Predict([]float64{c.X, c.Y}, k)}
		}
		return out
	}
	return Result{
		Boundary:   predict(-1),
		FirstRound: predict(1),
		Residuals:  model.Residuals(x, y, 0),
		FirstTree:  model.Trees[0],
	}, nil
}

// Wire types of the boosting HTTP service.
type (
	WireCoords struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	WireTrainingPoint struct {
		ID     int        `json:"id"`
		Coords WireCoords `json:"coords"`
		Label  int        `json:"label"`
	}
	WireBoundaryPoint struct {
		Coords []float64 `json:"coords"`
	}
	WireRequest struct {
		TrainingPoints []WireTrainingPoint `json:"trainingPoints"`
		BoundaryPoints []WireBoundaryPoint `json:"boundaryPoints"`
		MaxDepth       int                 `json:"maxDepth"`
		LearningRate   float64             `json:"learningRate"`
		NumTrees       int                 `json:"numTrees"`
	}
	WireResponse struct {
		DecisionBoundary []Prediction `json:"decisionBoundary"`
	}
)

// ErrBadWireRequest is returned when a wire request cannot be converted.
var ErrBadWireRequest = errors.New("xgboost: malformed boosting request")

// Encode converts a request to its wire form. Training ids become positions.
func Encode(req Request) WireRequest {
	w := WireRequest{MaxDepth: req.MaxDepth, LearningRate: req.LearningRate, NumTrees: req.NumTrees}
	for i, p := range req.TrainingPoints {
		w.TrainingPoints = append(w.TrainingPoints, WireTrainingPoint{
			ID: i, Coords: WireCoords{X: p.Coords.X, Y: p.Coords.Y}, Label: p.Label,
		})
	}
	for _, c := range req.Boundary {
		w.BoundaryPoints = append(w.BoundaryPoints, WireBoundaryPoint{Coords: []float64{c.X, c.Y}})
	}
	return w
}

// Decode converts a wire request back into a Request.
func Decode(w WireRequest) (Request, error) {
	req := Request{MaxDepth: w.MaxDepth, LearningRate: w.LearningRate, NumTrees: w.NumTrees}
	for _, p := range w.TrainingPoints {
		req.TrainingPoints = append(req.TrainingPoints, DataPoint{
			ID: strconv.Itoa(p.ID), Coords: domain.Coords2D{X: p.Coords.X, Y: p.Coords.Y}, Label: p.Label,
		})
	}
	for i, b := range w.BoundaryPoints {
		if len(b.Coords) != 2 {
			return Request{}, fmt.Errorf("%w: boundary point %d has %d coordinates", ErrBadWireRequest, i, len(b.Coords))
		}
		req.Boundary = append(req.Boundary, domain.Coords2D{X: b.Coords[0], Y: b.Coords[1]})
	}
	return req, nil
}

// RemoteBooster delegates the fit to a boosting service over HTTP.
type RemoteBooster struct {
	URL    string
	Client *http.Client
}

// NewRemoteBooster targets url, e.g. http://localhost:8000/api/xgboost.
func NewRemoteBooster(url string) *RemoteBooster {
	return &RemoteBooster{URL: url, Client: &http.Client{Timeout: 2 * time.Minute}}
}

func (r *RemoteBooster) BoosterID() string { return "remote=" + r.URL }

func (r *RemoteBooster) Boost(ctx context.Context, req Request) (Result, error) {
	body, err := json.Marshal(Encode(req))
	if err != nil {
		return Result{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("failed to reach boosting service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Result{}, fmt.Errorf("boosting service returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	var out WireResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, fmt.Errorf("failed to decode boosting response: %w", err)
	}
	return Result{Boundary: out.DecisionBoundary}, nil
}
