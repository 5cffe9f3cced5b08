// Package designator names components: a reference designator read from the
// board when one is legible, otherwise a generic name built from the
// component class and a per-run counter (R1, C2, U3, ...).
package designator

import (
	"fmt"
	"regexp"
	"strings"
)

// Class is the closed set of component kinds that have their own prefix.
type Class int

const (
	Unknown Class = iota
	Resistor
	Capacitor
	IC
	Diode
	LED
	Transistor
)

var classNames = [...]string{
	Unknown:    "unknown",
	Resistor:   "resistor",
	Capacitor:  "capacitor",
	IC:         "ic",
	Diode:      "diode",
	LED:        "led",
	Transistor: "transistor",
}

var classPrefixes = [...]string{
	Unknown:    "X",
	Resistor:   "R",
	Capacitor:  "C",
	IC:         "U",
	Diode:      "D",
	LED:        "LED",
	Transistor: "Q",
}

func (c Class) String() string {
	if c < Unknown || c > Transistor {
		return "unknown"
	}
	return classNames[c]
}

// Prefix returns the designator prefix for the class.
func (c Class) Prefix() string {
	if c < Unknown || c > Transistor {
		return classPrefixes[Unknown]
	}
	return classPrefixes[c]
}

// WantsOCR reports whether parts of this class usually carry legible
// markings. Chip resistors and capacitors are too small to read.
func (c Class) WantsOCR() bool {
	return c != Resistor && c != Capacitor
}

// ReadsMarking reports whether a part with the given detector label should
// be read. Labels naming a class follow Class.WantsOCR; unclassified labels
// are read unless they mark a generic SMD part.
func ReadsMarking(label string) bool {
	if c := ClassOf(label); c != Unknown {
		return c.WantsOCR()
	}
	return !strings.Contains(strings.ToLower(label), "smd")
}

// classKeywords is checked in order; the first match wins. "capacitor" must
// come before "ic".
var classKeywords = []struct {
	class    Class
	keywords []string
}{
	{Resistor, []string{"resistor"}},
	{Capacitor, []string{"capacitor"}},
	{IC, []string{"ic", "chip", "integrated", "circuit"}},
	{Diode, []string{"diode"}},
	{LED, []string{"led"}},
	{Transistor, []string{"transistor"}},
}

// ClassOf maps a detector class label to a Class.
func ClassOf(label string) Class {
	l := strings.ToLower(label)
	for _, ck := range classKeywords {
		for _, kw := range ck.keywords {
			if strings.Contains(l, kw) {
				return ck.class
			}
		}
	}
	return Unknown
}

// Counter hands out generic names and keeps every name unique within a run.
// It is not safe for concurrent use.
type Counter struct {
	next  map[Class]int
	taken map[string]bool
}

// NewCounter returns a counter with every class starting at 1.
func NewCounter() *Counter {
	return &Counter{next: make(map[Class]int), taken: make(map[string]bool)}
}

// Generic returns the next unused generic name for c.
func (n *Counter) Generic(c Class) string {
	for {
		n.next[c]++
		name := fmt.Sprintf("%s%d", c.Prefix(), n.next[c])
		if !n.taken[name] {
			n.taken[name] = true
			return name
		}
	}
}

// Claim reserves name, suffixing it with _2, _3, ... if it is already taken.
func (n *Counter) Claim(name string) string {
	if !n.taken[name] {
		n.taken[name] = true
		return name
	}
	for i := 2; ; i++ {
		alt := fmt.Sprintf("%s_%d", name, i)
		if !n.taken[alt] {
			n.taken[alt] = true
			return alt
		}
	}
}

var (
	refDesRe = regexp.MustCompile(`^(?:LED|[RCUDQLJXTFKY]|IC)[0-9]{1,4}$`)
	junkRe   = regexp.MustCompile(`[^A-Z0-9\-/ ]+`)
)

// IsReference reports whether s looks like a reference designator (R12, U3, LED1).
func IsReference(s string) bool {
	return refDesRe.MatchString(s)
}

// Normalize cleans raw OCR text into a component name. A reference
// designator anywhere in the text wins; otherwise the remaining tokens are
// joined with a space (part numbers such as "NE555"). Text with fewer than two
// usable characters yields "".
func Normalize(text string) string {
	cleaned := junkRe.ReplaceAllString(strings.ToUpper(text), " ")
	fields := strings.Fields(cleaned)
	for _, f := range fields {
		if IsReference(f) {
			return f
		}
	}
	name := strings.Join(fields, " ")
	if len(strings.ReplaceAll(name, " ", "")) < 2 {
		return ""
	}
	return name
}
