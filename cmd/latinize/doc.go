// Command latinize fills and edits the latin cache: latinized ASCII titles and
// album names for audio tracks, obtained from a chat-completion endpoint.
//
// Batch commands (run, clear) collect tracks from files or directories, show
// progress while a background worker processes them, and report how many
// items changed. Ctrl-C cancels the batch after the current item; changes made
// so far are saved. The cache subcommands list, edit, export, and import
// entries directly, saving after every change.
package main
