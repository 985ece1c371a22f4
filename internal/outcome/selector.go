package outcome

import (
	"crypto/rand"
	"math"
	"math/big"
	mrand "math/rand/v2"
	"slices"
	"sync"
)

// RandSource devolve um inteiro uniforme em [0, n). n > 0.
type RandSource interface {
	Int63n(n int64) int64
}

// CryptoSource usa crypto/rand; seguro para uso concorrente
type CryptoSource struct{}

func (CryptoSource) Int63n(n int64) int64 {
	v, err := rand.Int(rand.Reader, big.NewInt(n))
	if err != nil {
		// crypto/rand só falha se o SO não tiver entropia
		panic("outcome: crypto/rand: " + err.Error())
	}
	return v.Int64()
}

// SeededSource é previsível; somente para testes e simulações
type SeededSource struct {
	mu sync.Mutex
	r  *mrand.Rand
}

func NewSeededSource(seed uint64) *SeededSource {
	return &SeededSource{r: mrand.New(mrand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *SeededSource) Int63n(n int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Int64N(n)
}

// Selection é o resultado do sorteio; Index é a posição no snapshot ordenado
// (usado pelo front para animar a roleta)
type Selection struct {
	Outcome Outcome
	Index   int
}

// Select sorteia um resultado proporcional ao peso.
// O snapshot é percorrido em ordem crescente de id; pesos <= 0 nunca são sorteados.
func Select(snapshot []Outcome, src RandSource) (Selection, error) {
	if len(snapshot) == 0 {
		return Selection{}, ErrNoOutcomesAvailable
	}

	ordered := slices.Clone(snapshot)
	slices.SortStableFunc(ordered, func(a, b Outcome) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})

	var total int64
	for _, o := range ordered {
		if o.Weight <= 0 {
			continue
		}
		if total > math.MaxInt64-o.Weight {
			return Selection{}, ErrInvalidWeights
		}
		total += o.Weight
	}
	if total <= 0 {
		return Selection{}, ErrInvalidWeights
	}

	r := src.Int63n(total)
	var cum int64
	for i, o := range ordered {
		if o.Weight <= 0 {
			continue
		}
		cum += o.Weight
		if cum > r {
			return Selection{Outcome: o, Index: i}, nil
		}
	}

	// inalcançável com r em [0, total)
	return Selection{}, ErrInvalidWeights
}
