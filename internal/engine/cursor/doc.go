// Package cursor tracks the selections of the reference editor.
//
// A Selection has an anchor and a head; a caret is a selection with both at
// the same offset. CursorSet keeps several selections sorted and merges the
// ones that overlap, while adjacent selections, such as "foo" and "bar" in
// "foobar", stay separate. After a buffer edit, Transform shifts every
// selection so it still covers the same text.
package cursor
