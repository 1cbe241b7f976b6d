// Package prompt loads the LLM prompt templates used by the request parser
// and the analyzer.
//
// Templates are text/template files named <name>.txt. Defaults are embedded;
// a project can override any of them in .reviewflow/prompts/.
//
// Example usage:
//
//	loader := prompt.NewLoader(repoRoot)
//	text, err := loader.LoadWithVars(prompt.ReviewFile, map[string]any{
//	    "File":  "app/db.py",
//	    "Focus": "security",
//	})
package prompt
