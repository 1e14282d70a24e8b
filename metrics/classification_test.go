package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/evalpipe/evalpipe/pkg/errors"
)

func vec(values []float64) *mat.VecDense {
	if len(values) == 0 {
		return nil
	}
	return mat.NewVecDense(len(values), values)
}

func TestAUC(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []float64
		yPred   []float64
		want    float64
		wantErr bool
	}{
		{
			name:  "Perfect classifier",
			yTrue: []float64{0, 0, 0, 1, 1, 1},
			yPred: []float64{0.1, 0.2, 0.3, 0.7, 0.8, 0.9},
			want:  1.0,
		},
		{
			name:  "Worst classifier",
			yTrue: []float64{0, 0, 0, 1, 1, 1},
			yPred: []float64{0.9, 0.8, 0.7, 0.3, 0.2, 0.1},
			want:  0.0,
		},
		{
			name:  "Random classifier",
			yTrue: []float64{0, 1, 0, 1},
			yPred: []float64{0.5, 0.5, 0.5, 0.5},
			want:  0.5,
		},
		{
			name:  "Typical case",
			yTrue: []float64{0, 0, 1, 1},
			yPred: []float64{0.1, 0.4, 0.35, 0.8},
			want:  0.75,
		},
		{
			name:  "All positive labels",
			yTrue: []float64{1, 1, 1, 1},
			yPred: []float64{0.1, 0.4, 0.35, 0.8},
			want:  0.5, // Undefined case, returns 0.5
		},
		{
			name:  "All negative labels",
			yTrue: []float64{0, 0, 0, 0},
			yPred: []float64{0.1, 0.4, 0.35, 0.8},
			want:  0.5, // Undefined case, returns 0.5
		},
		{
			name:    "Non-binary labels",
			yTrue:   []float64{0, 0.5, 1},
			yPred:   []float64{0.1, 0.5, 0.9},
			wantErr: true,
		},
		{
			name:    "Dimension mismatch",
			yTrue:   []float64{0, 1},
			yPred:   []float64{0.5},
			wantErr: true,
		},
		{
			name:    "Empty vectors",
			yTrue:   []float64{},
			yPred:   []float64{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AUC(vec(tt.yTrue), vec(tt.yPred))
			if tt.wantErr {
				if err == nil {
					t.Errorf("AUC() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("AUC() unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("AUC() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPrecisionRecallF1(t *testing.T) {
	yTrue := vec([]float64{1, 1, 0, 0, 1, 0})
	yPred := vec([]float64{1, 0, 1, 0, 1, 0})

	// tp=2, fp=1, fn=1
	precision, err := Precision(yTrue, yPred)
	if err != nil {
		t.Fatalf("Precision() error: %v", err)
	}
	if math.Abs(precision-2.0/3.0) > 1e-9 {
		t.Errorf("Precision() = %v, want %v", precision, 2.0/3.0)
	}

	recall, err := Recall(yTrue, yPred)
	if err != nil {
		t.Fatalf("Recall() error: %v", err)
	}
	if math.Abs(recall-2.0/3.0) > 1e-9 {
		t.Errorf("Recall() = %v, want %v", recall, 2.0/3.0)
	}

	f1, err := F1(yTrue, yPred)
	if err != nil {
		t.Fatalf("F1() error: %v", err)
	}
	if math.Abs(f1-2.0/3.0) > 1e-9 {
		t.Errorf("F1() = %v, want %v", f1, 2.0/3.0)
	}
}

func TestPrecisionUndefined(t *testing.T) {
	var warned error
	errors.SetWarningHandler(func(w error) { warned = w })
	t.Cleanup(func() { errors.SetWarningHandler(nil) })

	yTrue := vec([]float64{1, 0, 1})
	yPred := vec([]float64{0, 0, 0})

	got, err := Precision(yTrue, yPred)
	if err != nil {
		t.Fatalf("Precision() error: %v", err)
	}
	if got != 0 {
		t.Errorf("Precision() = %v, want 0", got)
	}
	if warned == nil {
		t.Error("expected UndefinedMetricWarning")
	}
}

func TestAccuracy(t *testing.T) {
	yTrue := vec([]float64{1, 0, 1, 0})
	yPred := vec([]float64{1, 0, 0, 0})

	got, err := Accuracy(yTrue, yPred)
	if err != nil {
		t.Fatalf("Accuracy() error: %v", err)
	}
	if math.Abs(got-0.75) > 1e-9 {
		t.Errorf("Accuracy() = %v, want 0.75", got)
	}
}

func TestLogLoss(t *testing.T) {
	yTrue := vec([]float64{1, 0})
	yProba := vec([]float64{0.9, 0.1})

	got, err := LogLoss(yTrue, yProba)
	if err != nil {
		t.Fatalf("LogLoss() error: %v", err)
	}
	want := -math.Log(0.9)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("LogLoss() = %v, want %v", got, want)
	}

	// Certain wrong prediction must stay finite due to clipping.
	yTrue = vec([]float64{1})
	yProba = vec([]float64{0})
	got, err = LogLoss(yTrue, yProba)
	if err != nil {
		t.Fatalf("LogLoss() error: %v", err)
	}
	if math.IsInf(got, 0) || math.IsNaN(got) {
		t.Errorf("LogLoss() = %v, want finite value", got)
	}
}

func TestMCC(t *testing.T) {
	// Perfect prediction has MCC 1.
	yTrue := vec([]float64{1, 0, 1, 0})
	got, err := MCC(yTrue, yTrue)
	if err != nil {
		t.Fatalf("MCC() error: %v", err)
	}
	if math.Abs(got-1) > 1e-9 {
		t.Errorf("MCC() = %v, want 1", got)
	}

	// Inverted prediction has MCC -1.
	yPred := vec([]float64{0, 1, 0, 1})
	got, err = MCC(yTrue, yPred)
	if err != nil {
		t.Fatalf("MCC() error: %v", err)
	}
	if math.Abs(got+1) > 1e-9 {
		t.Errorf("MCC() = %v, want -1", got)
	}
}
