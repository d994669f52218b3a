package game

import (
	"bufio"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"
)

// defaultWords is the built-in list used when no words file is configured.
var defaultWords = []string{
	"ELEPHANT", "BUTTERFLY", "RAINBOW", "MOUNTAIN", "OCEAN", "GUITAR", "PIZZA", "ROCKET",
	"FLOWER", "CASTLE", "DRAGON", "BICYCLE", "SUNSET", "PENGUIN", "LIGHTHOUSE", "TREASURE",
}

// WordSource supplies the secret word for a new round.
type WordSource interface {
	Random() string
}

// WordBank picks words uniformly from a fixed list. Safe for concurrent use.
type WordBank struct {
	words []string
	mu    sync.Mutex
	rng   *rand.Rand
}

// NewWordBank creates a bank over words. An empty list falls back to the built-in words.
func NewWordBank(words []string) *WordBank {
	if len(words) == 0 {
		words = defaultWords
	}
	return &WordBank{
		words: append([]string(nil), words...),
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// LoadWordBank reads one word per line from path. Blank lines and lines starting
// with '#' are skipped. An empty path returns the built-in bank.
func LoadWordBank(path string) (*WordBank, error) {
	if path == "" {
		return NewWordBank(nil), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open words file %s: %w", path, err)
	}
	defer file.Close()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, strings.ToUpper(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read words file %s: %w", path, err)
	}
	if len(words) == 0 {
		return nil, errors.New("words file " + path + " has no words")
	}

	return NewWordBank(words), nil
}

// Random returns a word from the bank.
func (b *WordBank) Random() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.words[b.rng.Intn(len(b.words))]
}

// Len reports how many words the bank holds.
func (b *WordBank) Len() int {
	return len(b.words)
}
