package bayes

import "strings"

const keyPrefix = "inferx"

// Keys maps category names to store keys.
//
//	inferx:categories          hash: category name -> size
//	inferx:categories:<name>   sorted counters: word -> score
//
// With a namespace the index key becomes inferx:<namespace>:categories.
type Keys struct {
	categories string
}

// NewKeys creates the key layout for the namespace ("" = no namespace)
func NewKeys(namespace string) Keys {
	parts := []string{keyPrefix, "categories"}
	if namespace != "" {
		parts = []string{keyPrefix, namespace, "categories"}
	}
	return Keys{categories: strings.Join(parts, ":")}
}

// Categories returns the key of the size index
func (k Keys) Categories() string {
	return k.categories
}

// Category returns the key of the word counters of a category
func (k Keys) Category(name string) string {
	return k.categories + ":" + name
}
