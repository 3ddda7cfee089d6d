package reconcile

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// minWordLen is the shortest token that counts as a significant word.
const minWordLen = 3

// minSharedWords is how many significant words memo and name must share.
const minSharedWords = 2

// stopWords are dropped before comparing memos with names: prepositions,
// articles and the jargon banks put into statement descriptions.
var stopWords = map[string]struct{}{
	// prepositions, articles, conjunctions
	"a": {}, "o": {}, "as": {}, "os": {}, "e": {}, "de": {}, "da": {}, "do": {}, "das": {}, "dos": {},
	"em": {}, "no": {}, "na": {}, "nos": {}, "nas": {}, "ao": {}, "aos": {}, "um": {}, "uma": {},
	"para": {}, "pra": {}, "por": {}, "pelo": {}, "pela": {}, "com": {}, "sem": {}, "sob": {},
	"the": {}, "and": {}, "for": {}, "from": {}, "to": {}, "of": {},
	// banking jargon
	"pix": {}, "ted": {}, "doc": {}, "tef": {}, "transferencia": {}, "transf": {}, "trans": {},
	"recebido": {}, "recebida": {}, "recebimento": {}, "enviado": {}, "enviada": {}, "envio": {},
	"pagamento": {}, "pgto": {}, "pag": {}, "pagto": {}, "deposito": {}, "dep": {},
	"credito": {}, "debito": {}, "cred": {}, "deb": {}, "boleto": {}, "tarifa": {},
	"banco": {}, "conta": {}, "agencia": {}, "saque": {}, "estorno": {}, "liquidacao": {},
	"cpf": {}, "cnpj": {}, "ltda": {}, "eireli": {},
}

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize folds diacritics and case and collapses everything that is not a
// letter or digit into single spaces.
func Normalize(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))
	space := true
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}

// SignificantWords returns the distinct significant words of s.
func SignificantWords(s string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, w := range strings.Fields(Normalize(s)) {
		if utf8.RuneCountInString(w) < minWordLen {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		words[w] = struct{}{}
	}
	return words
}

// ContainsFullName reports whether the normalized name appears verbatim, on
// word boundaries, inside the normalized memo.
func ContainsFullName(memo, name string) bool {
	n := Normalize(name)
	if n == "" {
		return false
	}
	return strings.Contains(" "+Normalize(memo)+" ", " "+n+" ")
}

// SharedWords lists, sorted, the significant words of memo found in any of names.
func SharedWords(memo string, names ...string) []string {
	memoWords := SignificantWords(memo)
	nameWords := make(map[string]struct{})
	for _, n := range names {
		for w := range SignificantWords(n) {
			nameWords[w] = struct{}{}
		}
	}
	var shared []string
	for w := range memoWords {
		if _, ok := nameWords[w]; ok {
			shared = append(shared, w)
		}
	}
	sort.Strings(shared)
	return shared
}

// NameEvidence is the result of comparing a memo with a target's names.
type NameEvidence struct {
	FullName    bool
	SharedWords []string
}

// Sufficient reports whether the evidence is strong enough for an automatic match.
func (e NameEvidence) Sufficient() bool {
	return e.FullName || len(e.SharedWords) >= minSharedWords
}

// Compare tests memo against the counterparty name and the other target names.
func Compare(memo, counterpartyName string, otherNames ...string) NameEvidence {
	all := append([]string{counterpartyName}, otherNames...)
	return NameEvidence{
		FullName:    ContainsFullName(memo, counterpartyName),
		SharedWords: SharedWords(memo, all...),
	}
}
