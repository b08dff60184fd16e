package internal

import (
	"fmt"
	"runtime"
	"strings"
)

// AssertionError - нарушение внутреннего инварианта или протокола взаимодействия.
type AssertionError struct {
	Tags    []any
	Callers []string
}

func (e *AssertionError) Error() string {
	var sb strings.Builder
	sb.WriteString("#ASSERTION_FAILED")
	for _, tag := range e.Tags {
		sb.WriteString(" ")
		sb.WriteString(fmt.Sprint(tag))
	}
	for _, caller := range e.Callers {
		sb.WriteString("\n\t")
		sb.WriteString(caller)
	}
	return sb.String()
}

// Assert паникует с *AssertionError если condition не выполнено.
func Assert(condition bool, tags ...any) {
	if !condition {
		panic(newAssertionError(tags))
	}
}

// AssertFunc - отложенный вариант Assert, условие вычисляется только при вызове.
func AssertFunc(condition func() bool, tags ...any) {
	if !condition() {
		panic(newAssertionError(tags))
	}
}

func newAssertionError(tags []any) *AssertionError {
	err := &AssertionError{Tags: tags}
	for skip := 2; skip <= 3; skip++ {
		if _, file, line, ok := runtime.Caller(skip); ok {
			err.Callers = append(err.Callers, fmt.Sprintf("%v:%v", file, line))
		}
	}
	return err
}
