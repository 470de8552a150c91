// Package jokes serves the bot's joke command from an embedded list.
package jokes

import "math/rand/v2"

// OutOfJokes is the reply when no joke can be produced.
const OutOfJokes = "Sorry, all out of jokes haha"

var jokes = []string{
	"Chuck Norris doesn't need garbage collection because he doesn't call .Dispose(), he calls .DropKick().",
	"Chuck Norris can write infinite recursion functions... and have them return.",
	"Chuck Norris's keyboard doesn't have a Ctrl key because nothing controls Chuck Norris.",
	"Chuck Norris can binary search unsorted data.",
	"Chuck Norris doesn't pair program.",
	"Chuck Norris writes code that optimizes itself.",
	"Chuck Norris compresses his files by doing a flying roundhouse kick to the hard drive.",
	"Chuck Norris's first program was kill -9.",
	"Chuck Norris solved the travelling salesman problem in O(1) time.",
	"All browsers support the hex definitions #chuck and #norris for the colors black and blue.",
	"Chuck Norris can't test for equality because he has no equal.",
	"Chuck Norris doesn't use web standards as the web will conform to him.",
}

// Source hands out jokes. The zero value degrades gracefully to OutOfJokes.
type Source struct {
	jokes []string
}

// NewSource creates the default joke source.
func NewSource() *Source {
	return &Source{jokes: jokes}
}

// Joke returns a random one-liner, or OutOfJokes when the list is empty.
func (s *Source) Joke() string {
	if s == nil || len(s.jokes) == 0 {
		return OutOfJokes
	}
	return s.jokes[rand.IntN(len(s.jokes))]
}
