/*
Package keybinds maps terminal keys to table browser actions.

# Contexts

Each screen of the browser has a context: table, search, picker, detail,
login and help. Keys resolve in the screen's context first and then in the
global context, so a screen binding shadows a global one.

# Sequences

A binding whose key is two plain characters ("gg") is a sequence. The first
key is held until the next key press; MatchSequence reports it as pending.

# Configuration File Format

User bindings live in ~/.lmscli/keybinds.json and are applied over the
defaults. The action "none" removes a default binding:

	{
	  // comments are allowed
	  "table": {
	    "n": "next_page",
	    "l": "none"
	  },
	  "detail": {
	    "y": "copy"
	  }
	}

Unknown contexts and actions are rejected. ctrl+c always force quits.
*/
package keybinds
