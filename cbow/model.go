package cbow

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/viant/wordvec/dataset"
	"github.com/viant/wordvec/embedding"
)

// lossFloor keeps the cross-entropy away from log(0) when a probability
// collapses numerically.
const lossFloor = 1e-10

// Model is a trained context-to-word classifier. Row i of the first-layer
// weight matrix is the embedding of vocabulary id i; the second layer
// exists to give the first one a training signal.
type Model struct {
	vocabSize int
	dim       int
	w1        []float64 // vocabSize x dim, row-major
	b1        []float64 // dim
	w2        []float64 // dim x vocabSize, row-major
	b2        []float64 // vocabSize
}

// gradients mirrors the model's parameter blocks.
type gradients struct {
	w1, b1, w2, b2 []float64
}

// Train fits a model to set with full-batch gradient descent under Adam.
// The hidden layer applies no activation: the two maps stay linear so that
// the first weight matrix ends up a plain lookup table of word vectors.
func Train(set *dataset.Set, cfg Config) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if set == nil || set.Len() == 0 {
		return nil, &ConfigError{Reason: "training set is empty"}
	}
	if set.VocabSize <= 0 {
		return nil, &ConfigError{Reason: fmt.Sprintf("vocabulary size must be positive, got %d", set.VocabSize)}
	}
	cfg = cfg.withDefaults()

	v, d := set.VocabSize, cfg.Dim
	model := &Model{
		vocabSize: v,
		dim:       d,
		w1:        make([]float64, v*d),
		b1:        make([]float64, d),
		w2:        make([]float64, d*v),
		b2:        make([]float64, v),
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	initNormal(rng, model.w1, 1/math.Sqrt(float64(v)))
	initNormal(rng, model.w2, 1/math.Sqrt(float64(d)))

	opt := optimizer{
		w1: newAdam(len(model.w1)),
		b1: newAdam(len(model.b1)),
		w2: newAdam(len(model.w2)),
		b2: newAdam(len(model.b2)),
	}
	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		loss, g := model.backward(set.X, set.Y)
		opt.w1.step(model.w1, g.w1, cfg.LearningRate, cfg.Beta1, cfg.Beta2, cfg.Epsilon, epoch)
		opt.b1.step(model.b1, g.b1, cfg.LearningRate, cfg.Beta1, cfg.Beta2, cfg.Epsilon, epoch)
		opt.w2.step(model.w2, g.w2, cfg.LearningRate, cfg.Beta1, cfg.Beta2, cfg.Epsilon, epoch)
		opt.b2.step(model.b2, g.b2, cfg.LearningRate, cfg.Beta1, cfg.Beta2, cfg.Epsilon, epoch)
		if cfg.Progress != nil {
			cfg.Progress(epoch, loss)
		}
	}
	return model, nil
}

type optimizer struct {
	w1, b1, w2, b2 *adam
}

// backward runs one full-batch forward and backward pass and returns the
// mean cross-entropy together with the parameter gradients.
func (m *Model) backward(x *mat.Dense, y []int) (float64, *gradients) {
	w1 := mat.NewDense(m.vocabSize, m.dim, m.w1)
	w2 := mat.NewDense(m.dim, m.vocabSize, m.w2)

	var hidden, logits mat.Dense
	hidden.Mul(x, w1)
	addRowWise(&hidden, m.b1)
	logits.Mul(&hidden, w2)
	addRowWise(&logits, m.b2)

	loss, dLogits := softmaxCrossEntropy(&logits, y)

	var dW2, dHidden, dW1 mat.Dense
	dW2.Mul(hidden.T(), dLogits)
	dHidden.Mul(dLogits, w2.T())
	dW1.Mul(x.T(), &dHidden)

	return loss, &gradients{
		w1: dW1.RawMatrix().Data,
		b1: columnSums(&dHidden),
		w2: dW2.RawMatrix().Data,
		b2: columnSums(dLogits),
	}
}

// softmaxCrossEntropy converts logits to row-wise probabilities with max
// subtraction and returns the mean cross-entropy against y along with
// dLoss/dLogits, which for softmax composed with cross-entropy is
// (probs - onehot(y)) / n.
func softmaxCrossEntropy(logits *mat.Dense, y []int) (float64, *mat.Dense) {
	n, v := logits.Dims()
	grad := mat.NewDense(n, v, nil)
	var loss float64
	for i := 0; i < n; i++ {
		row := logits.RawRowView(i)
		maxLogit := row[0]
		for _, l := range row[1:] {
			if l > maxLogit {
				maxLogit = l
			}
		}
		probs := grad.RawRowView(i)
		var sum float64
		for j, l := range row {
			p := math.Exp(l - maxLogit)
			probs[j] = p
			sum += p
		}
		for j := range probs {
			probs[j] /= sum
		}
		p := probs[y[i]]
		if p < lossFloor {
			p = lossFloor
		}
		loss -= math.Log(p)
		probs[y[i]]--
		for j := range probs {
			probs[j] /= float64(n)
		}
	}
	return loss / float64(n), grad
}

// Predict runs a single presence-encoded context row through the network
// and returns the softmax distribution over the vocabulary.
func (m *Model) Predict(x []float64) ([]float64, error) {
	if len(x) != m.vocabSize {
		return nil, fmt.Errorf("cbow: feature row has %d columns, want %d", len(x), m.vocabSize)
	}
	hidden := make([]float64, m.dim)
	for i, xi := range x {
		if xi == 0 {
			continue
		}
		row := m.w1[i*m.dim : (i+1)*m.dim]
		for j, w := range row {
			hidden[j] += xi * w
		}
	}
	for j, b := range m.b1 {
		hidden[j] += b
	}
	logits := make([]float64, m.vocabSize)
	copy(logits, m.b2)
	for i, h := range hidden {
		row := m.w2[i*m.vocabSize : (i+1)*m.vocabSize]
		for j, w := range row {
			logits[j] += h * w
		}
	}
	maxLogit := logits[0]
	for _, l := range logits[1:] {
		if l > maxLogit {
			maxLogit = l
		}
	}
	var sum float64
	for j, l := range logits {
		p := math.Exp(l - maxLogit)
		logits[j] = p
		sum += p
	}
	for j := range logits {
		logits[j] /= sum
	}
	return logits, nil
}

// Table extracts the embedding table: row i of the first-layer weights,
// converted to float32, is the embedding of vocabulary id i.
func (m *Model) Table() *embedding.Dense {
	rows := make([][]float32, m.vocabSize)
	for i := 0; i < m.vocabSize; i++ {
		row := make([]float32, m.dim)
		for j := 0; j < m.dim; j++ {
			row[j] = float32(m.w1[i*m.dim+j])
		}
		rows[i] = row
	}
	return embedding.NewDense(rows)
}

// Dim returns the embedding dimensionality.
func (m *Model) Dim() int { return m.dim }

// VocabSize returns the width of the input and output layers.
func (m *Model) VocabSize() int { return m.vocabSize }

func initNormal(rng *rand.Rand, dst []float64, scale float64) {
	for i := range dst {
		dst[i] = rng.NormFloat64() * scale
	}
}

// addRowWise adds bias to every row of m in place.
func addRowWise(m *mat.Dense, bias []float64) {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		row := m.RawRowView(i)
		for j := 0; j < c; j++ {
			row[j] += bias[j]
		}
	}
}

// columnSums collapses m into a single row of column totals.
func columnSums(m *mat.Dense) []float64 {
	r, c := m.Dims()
	out := make([]float64, c)
	for i := 0; i < r; i++ {
		row := m.RawRowView(i)
		for j := 0; j < c; j++ {
			out[j] += row[j]
		}
	}
	return out
}
