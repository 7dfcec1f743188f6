package phh

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// WriteSection appends hand to a session file under a numbered [section]
// header.
func WriteSection(w io.Writer, section int, hand *HandHistory) error {
	if _, err := fmt.Fprintf(w, "[%d]\n", section); err != nil {
		return err
	}
	if err := Encode(w, hand); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// LastSection returns the highest section number in the session file at
// path, or zero when the file does not exist.
func LastSection(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	last := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) >= 3 && line[0] == '[' && line[len(line)-1] == ']' {
			if n, err := strconv.Atoi(line[1 : len(line)-1]); err == nil && n > last {
				last = n
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	return last, nil
}

// DecodeSession reads every hand of a session file in section order.
func DecodeSession(r io.Reader) ([]HandHistory, error) {
	sections := make(map[string]HandHistory)
	if _, err := toml.NewDecoder(r).Decode(&sections); err != nil {
		return nil, fmt.Errorf("phh: decode session: %w", err)
	}

	keys := make([]string, 0, len(sections))
	for k := range sections {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		ai, errA := strconv.Atoi(a)
		bi, errB := strconv.Atoi(b)
		if errA == nil && errB == nil {
			return ai - bi
		}
		return strings.Compare(a, b)
	})

	hands := make([]HandHistory, 0, len(keys))
	for _, key := range keys {
		hand := sections[key]
		if hand.HandID == "" {
			hand.HandID = key
		}
		hands = append(hands, hand)
	}
	return hands, nil
}
