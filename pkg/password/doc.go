// Package password evaluates candidate passwords against the registry's
// password policy.
//
// The policy has five independent requirements: minimum length, a lowercase
// letter, an uppercase letter, a digit and a special character. Evaluate is
// pure and cheap, so callers recompute it on every change instead of caching.
//
//	req := password.Evaluate("Secr3t!pass")
//	req.Valid()    // true
//	req.Strength() // 100
//	req.Missing()  // nil
package password
