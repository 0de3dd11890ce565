package search

import (
	"testing"

	"github.com/BulizzesRG/myownpos/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"coca", "cola", "600ml"}, Tokenize("Coca-Cola  600ml!"))
	assert.Equal(t, []string{"jalapeño"}, Tokenize("JALAPEÑO"))
	assert.Empty(t, Tokenize(" -- "))
}

func TestTerms(t *testing.T) {
	exact, prefixes := Terms(NewDocument(&model.Product{ID: 7, Description: "Cola", Barcode: "AB1", AlternativeCode: "ab1"}))

	assert.Equal(t, []string{"7", "cola", "ab1"}, exact)
	assert.ElementsMatch(t, []string{"7", "c", "co", "col", "cola", "a", "ab", "ab1"}, prefixes)
}

func TestTerms_SingleCharacterPrefix(t *testing.T) {
	_, prefixes := Terms(NewDocument(&model.Product{ID: 3, Description: "Chocolate"}))
	assert.Contains(t, prefixes, "c")
}

func TestRank_ScoresByMatchedTermsThenID(t *testing.T) {
	// query "cola light": doc 5 matches both, 2 and 9 match one.
	prefixHits := [][]uint{{9, 5, 2}, {5}}
	exactHits := [][]uint{{2}, {}}

	// 5: 2+2=4; 2: 2+1=3; 9: 2
	assert.Equal(t, []uint{5, 2, 9}, rank(prefixHits, exactHits))
}

func TestRank_TiesAscendingID(t *testing.T) {
	assert.Equal(t, []uint{1, 3, 4, 8}, rank([][]uint{{8, 4, 1, 3, 3}}, nil))
}

func TestRank_Empty(t *testing.T) {
	assert.Empty(t, rank(nil, nil))
}
