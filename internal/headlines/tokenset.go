package headlines

// TokenSet is an insertion-ordered set of distinct tokens with a fixed capacity.
type TokenSet struct {
	limit  int
	tokens []string
	index  map[string]struct{}
}

// NewTokenSet creates an empty set that holds at most limit tokens. A non-positive limit
// falls back to DefaultMaxTokens.
func NewTokenSet(limit int) *TokenSet {
	if limit <= 0 {
		limit = DefaultMaxTokens
	}
	return &TokenSet{
		limit: limit,
		index: make(map[string]struct{}),
	}
}

// Add inserts a token and reports whether the set changed.
func (s *TokenSet) Add(token string) bool {
	if _, ok := s.index[token]; ok {
		return false
	}
	if len(s.tokens) >= s.limit {
		return false
	}
	s.index[token] = struct{}{}
	s.tokens = append(s.tokens, token)
	return true
}

// Full reports whether the set reached its capacity.
func (s *TokenSet) Full() bool {
	return len(s.tokens) >= s.limit
}

// Has reports whether token is in the set.
func (s *TokenSet) Has(token string) bool {
	_, ok := s.index[token]
	return ok
}

// Len returns the number of tokens.
func (s *TokenSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.tokens)
}

// Tokens returns the tokens in insertion order.
func (s *TokenSet) Tokens() []string {
	out := make([]string, len(s.tokens))
	copy(out, s.tokens)
	return out
}

// Union adds every token of other, in other's order, until the set is full.
func (s *TokenSet) Union(other *TokenSet) {
	if other == nil {
		return
	}
	for _, token := range other.tokens {
		if s.Full() {
			return
		}
		s.Add(token)
	}
}

// OverlapRatio returns |a ∩ b| / min(|a|, |b|), or 0 when either set is empty.
func OverlapRatio(a, b *TokenSet) float64 {
	if a.Len() == 0 || b.Len() == 0 {
		return 0
	}

	small, large := a, b
	if small.Len() > large.Len() {
		small, large = large, small
	}

	shared := 0
	for _, token := range small.tokens {
		if large.Has(token) {
			shared++
		}
	}
	return float64(shared) / float64(small.Len())
}
