// Package confirm asks the user yes/no questions.
//
// Commands never read stdin directly; they receive a Confirmer. Production
// code uses Console, tests use Scripted, and --yes maps to Fixed(true).
package confirm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// DefaultRetries is the number of unrecognized answers tolerated before giving up.
const DefaultRetries = 4

// DefaultComplaint is printed after an unrecognized answer.
const DefaultComplaint = "Yes or no, please!"

var (
	// ErrRetriesExhausted is returned when the user keeps giving unrecognized answers.
	ErrRetriesExhausted = errors.New("no yes/no answer within the retry budget")

	// ErrNoInput is returned when the input ends before an answer was given.
	ErrNoInput = errors.New("no input available for confirmation")
)

// Confirmer asks a yes/no question.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// ParseAnswer maps a typed answer to yes or no. ok is false for anything else.
func ParseAnswer(answer string) (yes bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "ye", "yes":
		return true, true
	case "n", "no", "nop", "nope":
		return false, true
	}
	return false, false
}

// Console reads answers line by line from In and writes prompts to Out.
type Console struct {
	in        *bufio.Reader
	out       io.Writer
	retries   int
	complaint string
}

// NewConsole creates a Console. A negative retries value means DefaultRetries.
func NewConsole(in io.Reader, out io.Writer, retries int) *Console {
	if retries < 0 {
		retries = DefaultRetries
	}
	return &Console{
		in:        bufio.NewReader(in),
		out:       out,
		retries:   retries,
		complaint: DefaultComplaint,
	}
}

// Confirm prints prompt and waits for a recognized answer.
func (c *Console) Confirm(prompt string) (bool, error) {
	remaining := c.retries
	for {
		_, _ = fmt.Fprintf(c.out, "%s (y/n): ", prompt)

		line, err := c.in.ReadString('\n')
		if err != nil && line == "" {
			if errors.Is(err, io.EOF) {
				return false, ErrNoInput
			}
			return false, fmt.Errorf("failed to read answer: %w", err)
		}

		if yes, ok := ParseAnswer(line); ok {
			return yes, nil
		}

		remaining--
		if remaining < 0 {
			return false, ErrRetriesExhausted
		}
		_, _ = fmt.Fprintln(c.out, c.complaint)
	}
}

// Scripted replays a fixed list of answers. It applies the same parsing and
// retry budget as Console and records every prompt it was asked.
type Scripted struct {
	Answers []string
	Retries int
	Prompts []string
}

// NewScripted creates a Scripted confirmer with the default retry budget.
func NewScripted(answers ...string) *Scripted {
	return &Scripted{Answers: answers, Retries: DefaultRetries}
}

// Confirm consumes answers until one is recognized.
func (s *Scripted) Confirm(prompt string) (bool, error) {
	s.Prompts = append(s.Prompts, prompt)
	remaining := s.Retries
	for {
		if len(s.Answers) == 0 {
			return false, ErrNoInput
		}
		answer := s.Answers[0]
		s.Answers = s.Answers[1:]

		if yes, ok := ParseAnswer(answer); ok {
			return yes, nil
		}
		remaining--
		if remaining < 0 {
			return false, ErrRetriesExhausted
		}
	}
}

// Fixed always gives the same answer without asking.
type Fixed bool

// Confirm returns the fixed answer.
func (f Fixed) Confirm(string) (bool, error) {
	return bool(f), nil
}
