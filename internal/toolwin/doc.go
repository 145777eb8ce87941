// Package toolwin hosts the content of plugin tool windows.
//
// A tool window is created for one pluginapi.ToolbarMenuItem. Mount asks the
// item for its HTML, validates the markup, and hands the resulting Window to
// the item's OnContentMount hook as a pluginapi.ContentRoot. The plugin can
// then replace the markup and register event listeners; the host delivers
// user interaction with Emit.
//
// The terminal host has no HTML engine. Text renders the markup as plain
// text, with block elements on their own lines, for display in a side pane.
package toolwin
