package tokenizer

// Porter suffix-stripping stemmer (Porter, 1980). The stemmer operates on
// lowercased words; words of length two or less pass through unchanged.

type stemmer struct {
	b []byte
	k int // offset of the last letter of the word
	j int // offset of the last letter of the stem, set by ends
}

// Stem reduces word to its Porter stem. The input must already be
// lowercased; tokens shorter than three characters are returned as-is.
func Stem(word string) string {
	if len(word) <= 2 {
		return word
	}
	s := &stemmer{b: []byte(word), k: len(word) - 1}
	s.step1ab()
	s.step1c()
	s.step2()
	s.step3()
	s.step4()
	s.step5()
	return string(s.b[:s.k+1])
}

// cons reports whether b[i] is a consonant. 'y' counts as a consonant only
// when it is the first letter or follows a vowel.
func (s *stemmer) cons(i int) bool {
	switch s.b[i] {
	case 'a', 'e', 'i', 'o', 'u':
		return false
	case 'y':
		if i == 0 {
			return true
		}
		return !s.cons(i - 1)
	default:
		return true
	}
}

// m measures the number of consonant-vowel alternations [C](VC)^m[V] in the
// stem b[0..j].
func (s *stemmer) m() int {
	n := 0
	i := 0
	for {
		if i > s.j {
			return n
		}
		if !s.cons(i) {
			break
		}
		i++
	}
	i++
	for {
		for {
			if i > s.j {
				return n
			}
			if s.cons(i) {
				break
			}
			i++
		}
		i++
		n++
		for {
			if i > s.j {
				return n
			}
			if !s.cons(i) {
				break
			}
			i++
		}
		i++
	}
}

// vowelInStem reports whether b[0..j] contains a vowel.
func (s *stemmer) vowelInStem() bool {
	for i := 0; i <= s.j; i++ {
		if !s.cons(i) {
			return true
		}
	}
	return false
}

// doubleC reports whether b[i-1..i] is a double consonant.
func (s *stemmer) doubleC(i int) bool {
	if i < 1 {
		return false
	}
	if s.b[i] != s.b[i-1] {
		return false
	}
	return s.cons(i)
}

// cvc reports whether b[i-2..i] has the form consonant-vowel-consonant where
// the final consonant is not w, x, or y. Restores a final e after suffix
// removal in short words, e.g. cav(e), lov(e).
func (s *stemmer) cvc(i int) bool {
	if i < 2 || !s.cons(i) || s.cons(i-1) || !s.cons(i-2) {
		return false
	}
	switch s.b[i] {
	case 'w', 'x', 'y':
		return false
	}
	return true
}

// ends reports whether b[0..k] ends with suffix, setting j to the offset
// just before the suffix when it does.
func (s *stemmer) ends(suffix string) bool {
	l := len(suffix)
	if l > s.k+1 {
		return false
	}
	if string(s.b[s.k+1-l:s.k+1]) != suffix {
		return false
	}
	s.j = s.k - l
	return true
}

// setTo replaces the suffix b[j+1..k] with repl and adjusts k.
func (s *stemmer) setTo(repl string) {
	s.b = append(s.b[:s.j+1], repl...)
	s.k = s.j + len(repl)
}

// r replaces the matched suffix with repl when the stem measure is positive.
func (s *stemmer) r(repl string) {
	if s.m() > 0 {
		s.setTo(repl)
	}
}

// step1ab removes plurals and -ed / -ing suffixes.
func (s *stemmer) step1ab() {
	if s.b[s.k] == 's' {
		switch {
		case s.ends("sses"):
			s.k -= 2
		case s.ends("ies"):
			s.setTo("i")
		case s.b[s.k-1] != 's':
			s.k--
		}
	}
	if s.ends("eed") {
		if s.m() > 0 {
			s.k--
		}
	} else if (s.ends("ed") || s.ends("ing")) && s.vowelInStem() {
		s.k = s.j
		switch {
		case s.ends("at"):
			s.setTo("ate")
		case s.ends("bl"):
			s.setTo("ble")
		case s.ends("iz"):
			s.setTo("ize")
		case s.doubleC(s.k):
			switch s.b[s.k] {
			case 'l', 's', 'z':
			default:
				s.k--
			}
		default:
			s.j = s.k
			if s.m() == 1 && s.cvc(s.k) {
				s.setTo("e")
			}
		}
	}
}

// step1c turns a terminal y into i when there is a vowel in the stem.
func (s *stemmer) step1c() {
	if s.ends("y") && s.vowelInStem() {
		s.b[s.k] = 'i'
	}
}

var step2Rules = []struct{ suffix, repl string }{
	{"ational", "ate"},
	{"ization", "ize"},
	{"iveness", "ive"},
	{"fulness", "ful"},
	{"ousness", "ous"},
	{"tional", "tion"},
	{"biliti", "ble"},
	{"entli", "ent"},
	{"ousli", "ous"},
	{"ation", "ate"},
	{"alism", "al"},
	{"aliti", "al"},
	{"iviti", "ive"},
	{"enci", "ence"},
	{"anci", "ance"},
	{"izer", "ize"},
	{"abli", "able"},
	{"alli", "al"},
	{"ator", "ate"},
	{"logi", "log"},
	{"eli", "e"},
}

// step2 maps double suffixes to single ones, gated by the measure. The
// -logi rule runs ungated so that word families like theology/theological
// converge on one stem.
func (s *stemmer) step2() {
	for _, rule := range step2Rules {
		if s.ends(rule.suffix) {
			if rule.suffix == "logi" {
				s.setTo(rule.repl)
			} else {
				s.r(rule.repl)
			}
			return
		}
	}
}

var step3Rules = []struct{ suffix, repl string }{
	{"icate", "ic"},
	{"ative", ""},
	{"alize", "al"},
	{"iciti", "ic"},
	{"ical", "ic"},
	{"ness", ""},
	{"ful", ""},
}

// step3 handles -ic-, -full, -ness and similar endings.
func (s *stemmer) step3() {
	for _, rule := range step3Rules {
		if s.ends(rule.suffix) {
			s.r(rule.repl)
			return
		}
	}
}

var step4Suffixes = []string{
	"ement",
	"ance", "ence", "able", "ible", "ment",
	"ant", "ent", "ion", "ism", "ate", "iti", "ous", "ive", "ize", "ian",
	"al", "er", "ic", "ou",
}

// step4 strips residual suffixes from stems with measure greater than one.
func (s *stemmer) step4() {
	for _, suffix := range step4Suffixes {
		if !s.ends(suffix) {
			continue
		}
		if suffix == "ion" {
			if s.j < 0 || (s.b[s.j] != 's' && s.b[s.j] != 't') {
				return
			}
		}
		if s.m() > 1 {
			s.k = s.j
		}
		return
	}
}

// step5 removes a terminal e and reduces a terminal double l.
func (s *stemmer) step5() {
	s.j = s.k
	if s.b[s.k] == 'e' {
		a := s.m()
		if a > 1 || (a == 1 && !s.cvc(s.k-1)) {
			s.k--
		}
	}
	if s.b[s.k] == 'l' && s.doubleC(s.k) && s.m() > 1 {
		s.k--
	}
}
