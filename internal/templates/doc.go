// Package templates holds the literal bodies of every text file generated
// into a module and renders them from the module settings.
//
// Bodies use <% %> delimiters so that shell expansions such as ${0%/*} pass
// through untouched. Rendering is pure: equal input yields equal bytes.
package templates
