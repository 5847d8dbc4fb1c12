package teaching

// Word counts at which a response earns full length credit.
const (
	MinUsefulWords  = 15
	FullLengthWords = 60
)

// LengthRule rewards explanations long enough to say something.
type LengthRule struct{}

func (r *LengthRule) Name() string { return "length" }
func (r *LengthRule) Max() int     { return 30 }

func (r *LengthRule) Score(in *Input) int {
	n := len(in.words)
	switch {
	case n >= FullLengthWords:
		return r.Max()
	case n < MinUsefulWords:
		return n * 10 / MinUsefulWords
	default:
		return 10 + (n-MinUsefulWords)*(r.Max()-10)/(FullLengthWords-MinUsefulWords)
	}
}

// CoverageRule rewards responses that address the prompt's key terms.
type CoverageRule struct{}

func (r *CoverageRule) Name() string { return "coverage" }
func (r *CoverageRule) Max() int     { return 40 }

func (r *CoverageRule) Score(in *Input) int {
	terms := keyTerms(in.Prompt)
	if len(terms) == 0 {
		return r.Max() / 2
	}
	seen := make(map[string]bool, len(in.words))
	for _, w := range in.words {
		seen[w] = true
	}
	hit := 0
	for _, t := range terms {
		if seen[t] {
			hit++
		}
	}
	return hit * r.Max() / len(terms)
}

// StructureRule rewards explanations built from several sentences.
type StructureRule struct{}

func (r *StructureRule) Name() string { return "structure" }
func (r *StructureRule) Max() int     { return 15 }

func (r *StructureRule) Score(in *Input) int {
	return min(in.sentences*5, r.Max())
}

// PlainLanguageRule rewards short everyday words over jargon.
type PlainLanguageRule struct{}

func (r *PlainLanguageRule) Name() string { return "plain-language" }
func (r *PlainLanguageRule) Max() int     { return 15 }

func (r *PlainLanguageRule) Score(in *Input) int {
	if len(in.words) == 0 {
		return 0
	}
	letters := 0
	for _, w := range in.words {
		letters += len(w)
	}
	avg := float64(letters) / float64(len(in.words))
	switch {
	case avg <= 5.5:
		return r.Max()
	case avg <= 7:
		return r.Max() / 2
	default:
		return 0
	}
}

var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "can": true, "do": true, "does": true, "explain": true,
	"for": true, "from": true, "how": true, "in": true, "is": true, "it": true,
	"of": true, "on": true, "or": true, "own": true, "the": true, "to": true,
	"what": true, "why": true, "with": true, "words": true, "your": true, "you": true,
}

func keyTerms(prompt string) []string {
	var out []string
	seen := map[string]bool{}
	for _, w := range tokenize(prompt) {
		if len(w) < 3 || stopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}
