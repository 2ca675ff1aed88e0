// Package schema validates posts against an embedded CUE definition.
//
// The definition (post.cue) is compiled once per Validator. Validate encodes
// the post to its wire JSON, compiles that as CUE and unifies it with #Post;
// the first failing field becomes a *post.ValidationError.
package schema
