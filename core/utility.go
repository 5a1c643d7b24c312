// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import "strings"

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// appendUnique appends every item of add not already in list.
func appendUnique(list []string, add ...string) []string {
	for _, s := range add {
		if !contains(list, s) {
			list = append(list, s)
		}
	}
	return list
}

// firstOf returns the first entry of wanted present in available.
func firstOf(wanted, available []string) string {
	for _, w := range wanted {
		if contains(available, w) {
			return w
		}
	}
	return ""
}

// missing returns the entries of required absent from available.
func missing(required, available []string) []string {
	var out []string
	for _, r := range required {
		if !contains(available, r) {
			out = append(out, r)
		}
	}
	return out
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
