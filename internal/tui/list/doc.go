// Package listview renders a windowed, keyboard-navigable list for Bubble
// Tea programs. Only the rows around the selection are rendered, and each
// item may span several lines.
package listview
