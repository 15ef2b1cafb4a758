package intake

// URLSet is a set of URLs already on the board.
type URLSet map[string]struct{}

// IsDuplicate reports whether url is already known. Comparison is exact.
func (s URLSet) IsDuplicate(url string) bool {
	_, ok := s[url]
	return ok
}

// Add records url, and directURL when different, as known.
func (s URLSet) Add(url, directURL string) {
	s[url] = struct{}{}
	if directURL != "" {
		s[directURL] = struct{}{}
	}
}
