// Package mkbrr wraps the mkbrr CLI used to create release packages and to
// rewrite the tracker list of existing ones.
package mkbrr
