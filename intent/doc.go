// Package intent turns a free-form review request into a repository
// reference and a review focus.
//
// LLMParser asks a language model and falls back to RegexParser when the
// model's answer cannot be decoded. RegexParser needs no model at all.
package intent
