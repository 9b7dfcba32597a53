package main

import (
	"fmt"
	"strconv"
	"strings"
)

// parseList splits a comma or space separated list
func parseList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
}

// parseFloats parses a comma or space separated list of numbers (e.g. "-84,24,-78,32" or "-84 24 -78 32")
func parseFloats(s string) ([]float64, error) {
	fields := parseList(s)
	values := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("parseFloats: %w", err)
		}
		values[i] = v
	}
	return values, nil
}

func parseSeed(s string) (*int64, error) {
	seed, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parseSeed: %w", err)
	}
	return &seed, nil
}
