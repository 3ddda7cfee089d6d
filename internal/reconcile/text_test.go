package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "joao silva advocacia", Normalize("  JOÃO  Silva-Advocacia!"))
	assert.Equal(t, "transferencia recebida 1500", Normalize("Transferência recebida: 1500"))
	assert.Equal(t, "valor 1 500", Normalize("valor 1.500"))
	assert.Equal(t, "", Normalize("--- "))
}

func TestSignificantWords(t *testing.T) {
	words := SignificantWords("PIX recebido de João da Silva em conta")
	assert.Equal(t, map[string]struct{}{"joao": {}, "silva": {}}, words)

	words = SignificantWords("TED Transferência Ana Li")
	assert.Equal(t, map[string]struct{}{"ana": {}}, words, "tokens shorter than three runes are not significant")
}

func TestContainsFullName(t *testing.T) {
	assert.True(t, ContainsFullName("PIX RECEBIDO JOAO SILVA", "João Silva"))
	assert.True(t, ContainsFullName("pgto Maria das Dores ref out", "MARIA DAS DORES"))
	assert.False(t, ContainsFullName("PIX JOAO SILVANO", "João Silva"), "must match on word boundaries")
	assert.False(t, ContainsFullName("anything", ""))
}

func TestCompare(t *testing.T) {
	t.Run("shared words are enough", func(t *testing.T) {
		ev := Compare("PIX João Silva", "João Silva Advocacia")
		assert.False(t, ev.FullName)
		assert.Equal(t, []string{"joao", "silva"}, ev.SharedWords)
		assert.True(t, ev.Sufficient())
	})

	t.Run("banking jargon does not count", func(t *testing.T) {
		ev := Compare("PIX recebido", "João Silva Advocacia")
		assert.Empty(t, ev.SharedWords)
		assert.False(t, ev.Sufficient())
	})

	t.Run("a single shared word is not enough", func(t *testing.T) {
		ev := Compare("TED SILVA", "João Silva Advocacia")
		assert.Equal(t, []string{"silva"}, ev.SharedWords)
		assert.False(t, ev.Sufficient())
	})

	t.Run("full name alone is enough", func(t *testing.T) {
		ev := Compare("pix acme", "ACME")
		assert.True(t, ev.FullName)
		assert.True(t, ev.Sufficient())
	})

	t.Run("target description counts as a name", func(t *testing.T) {
		ev := Compare("honorarios contrato alfa", "Beta Corp", "Honorários contrato Alfa")
		assert.Equal(t, []string{"alfa", "contrato", "honorarios"}, ev.SharedWords)
		assert.True(t, ev.Sufficient())
	})
}
