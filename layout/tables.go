package layout

// DefaultLayout is used whenever a requested layout is unknown.
const DefaultLayout = "en_US"

func plain(code string) CharDef   { return CharDef{Code: code} }
func shifted(code string) CharDef { return CharDef{Code: code, Shift: true} }
func altGr(code string) CharDef   { return CharDef{Code: code, AltRight: true} }

// letters maps a-z and A-Z onto their positional keys, with overrides for
// layouts that move letters around.
func letters(chars map[string]CharDef, overrides map[rune]string) {
	for r := 'a'; r <= 'z'; r++ {
		code := "Key" + string(r-'a'+'A')
		if o, ok := overrides[r]; ok {
			code = o
		}
		chars[string(r)] = plain(code)
		chars[string(r-'a'+'A')] = shifted(code)
	}
}

var whitespaceAliases = map[string]string{
	"\n": "Enter",
	"\r": "Enter",
	"\t": "Tab",
}

func enUS() Definition {
	chars := map[string]CharDef{
		"1": plain("Digit1"), "2": plain("Digit2"), "3": plain("Digit3"), "4": plain("Digit4"), "5": plain("Digit5"),
		"6": plain("Digit6"), "7": plain("Digit7"), "8": plain("Digit8"), "9": plain("Digit9"), "0": plain("Digit0"),
		"!": shifted("Digit1"), "@": shifted("Digit2"), "#": shifted("Digit3"), "$": shifted("Digit4"), "%": shifted("Digit5"),
		"^": shifted("Digit6"), "&": shifted("Digit7"), "*": shifted("Digit8"), "(": shifted("Digit9"), ")": shifted("Digit0"),

		"-": plain("Minus"), "_": shifted("Minus"),
		"=": plain("Equal"), "+": shifted("Equal"),
		"[": plain("BracketLeft"), "{": shifted("BracketLeft"),
		"]": plain("BracketRight"), "}": shifted("BracketRight"),
		"\\": plain("Backslash"), "|": shifted("Backslash"),
		";": plain("Semicolon"), ":": shifted("Semicolon"),
		"'": plain("Quote"), "\"": shifted("Quote"),
		"`": plain("Backquote"), "~": shifted("Backquote"),
		",": plain("Comma"), "<": shifted("Comma"),
		".": plain("Period"), ">": shifted("Period"),
		"/": plain("Slash"), "?": shifted("Slash"),
		" ": plain("Space"),
	}
	letters(chars, nil)
	return Definition{Name: "en_US", DisplayName: "English (US)", Chars: chars, Aliases: whitespaceAliases}
}

func enGB() Definition {
	chars := map[string]CharDef{
		"1": plain("Digit1"), "2": plain("Digit2"), "3": plain("Digit3"), "4": plain("Digit4"), "5": plain("Digit5"),
		"6": plain("Digit6"), "7": plain("Digit7"), "8": plain("Digit8"), "9": plain("Digit9"), "0": plain("Digit0"),
		"!": shifted("Digit1"), "\"": shifted("Digit2"), "£": shifted("Digit3"), "$": shifted("Digit4"), "%": shifted("Digit5"),
		"^": shifted("Digit6"), "&": shifted("Digit7"), "*": shifted("Digit8"), "(": shifted("Digit9"), ")": shifted("Digit0"),
		"€": altGr("Digit4"),

		"-": plain("Minus"), "_": shifted("Minus"),
		"=": plain("Equal"), "+": shifted("Equal"),
		"[": plain("BracketLeft"), "{": shifted("BracketLeft"),
		"]": plain("BracketRight"), "}": shifted("BracketRight"),
		"#": plain("IntlHash"), "~": shifted("IntlHash"),
		";": plain("Semicolon"), ":": shifted("Semicolon"),
		"'": plain("Quote"), "@": shifted("Quote"),
		"`": plain("Backquote"), "¬": shifted("Backquote"), "¦": altGr("Backquote"),
		"\\": plain("IntlBackslash"), "|": shifted("IntlBackslash"),
		",": plain("Comma"), "<": shifted("Comma"),
		".": plain("Period"), ">": shifted("Period"),
		"/": plain("Slash"), "?": shifted("Slash"),
		" ": plain("Space"),
		"é": altGr("KeyE"), "á": altGr("KeyA"), "í": altGr("KeyI"), "ó": altGr("KeyO"), "ú": altGr("KeyU"),
	}
	letters(chars, nil)
	return Definition{Name: "en_GB", DisplayName: "English (UK)", Chars: chars, Aliases: whitespaceAliases}
}

func deDE() Definition {
	chars := map[string]CharDef{
		"1": plain("Digit1"), "2": plain("Digit2"), "3": plain("Digit3"), "4": plain("Digit4"), "5": plain("Digit5"),
		"6": plain("Digit6"), "7": plain("Digit7"), "8": plain("Digit8"), "9": plain("Digit9"), "0": plain("Digit0"),
		"!": shifted("Digit1"), "\"": shifted("Digit2"), "§": shifted("Digit3"), "$": shifted("Digit4"), "%": shifted("Digit5"),
		"&": shifted("Digit6"), "/": shifted("Digit7"), "(": shifted("Digit8"), ")": shifted("Digit9"), "=": shifted("Digit0"),
		"²": altGr("Digit2"), "³": altGr("Digit3"), "{": altGr("Digit7"), "[": altGr("Digit8"), "]": altGr("Digit9"), "}": altGr("Digit0"),

		"ß": plain("Minus"), "?": shifted("Minus"), "\\": altGr("Minus"),
		"´": plain("Equal"), "`": shifted("Equal"),
		"ü": plain("BracketLeft"), "Ü": shifted("BracketLeft"),
		"+": plain("BracketRight"), "*": shifted("BracketRight"), "~": altGr("BracketRight"),
		"ö": plain("Semicolon"), "Ö": shifted("Semicolon"),
		"ä": plain("Quote"), "Ä": shifted("Quote"),
		"^": plain("Backquote"), "°": shifted("Backquote"),
		"#": plain("IntlHash"), "'": shifted("IntlHash"),
		"<": plain("IntlBackslash"), ">": shifted("IntlBackslash"), "|": altGr("IntlBackslash"),
		",": plain("Comma"), ";": shifted("Comma"),
		".": plain("Period"), ":": shifted("Period"),
		"-": plain("Slash"), "_": shifted("Slash"),
		" ": plain("Space"),
		"@": altGr("KeyQ"), "€": altGr("KeyE"), "µ": altGr("KeyM"),
	}
	letters(chars, map[rune]string{'y': "KeyZ", 'z': "KeyY"})
	return Definition{Name: "de_DE", DisplayName: "Deutsch", Chars: chars, Aliases: whitespaceAliases}
}

func frFR() Definition {
	chars := map[string]CharDef{
		"&": plain("Digit1"), "é": plain("Digit2"), "\"": plain("Digit3"), "'": plain("Digit4"), "(": plain("Digit5"),
		"-": plain("Digit6"), "è": plain("Digit7"), "_": plain("Digit8"), "ç": plain("Digit9"), "à": plain("Digit0"),
		"1": shifted("Digit1"), "2": shifted("Digit2"), "3": shifted("Digit3"), "4": shifted("Digit4"), "5": shifted("Digit5"),
		"6": shifted("Digit6"), "7": shifted("Digit7"), "8": shifted("Digit8"), "9": shifted("Digit9"), "0": shifted("Digit0"),
		"~": altGr("Digit2"), "#": altGr("Digit3"), "{": altGr("Digit4"), "[": altGr("Digit5"), "|": altGr("Digit6"),
		"`": altGr("Digit7"), "\\": altGr("Digit8"), "@": altGr("Digit0"),

		")": plain("Minus"), "°": shifted("Minus"), "]": altGr("Minus"),
		"=": plain("Equal"), "+": shifted("Equal"), "}": altGr("Equal"),
		"^": plain("BracketLeft"), "¨": shifted("BracketLeft"),
		"$": plain("BracketRight"), "£": shifted("BracketRight"), "¤": altGr("BracketRight"),
		"ù": plain("Quote"), "%": shifted("Quote"),
		"*": plain("IntlHash"), "µ": shifted("IntlHash"),
		"²": plain("Backquote"),
		"<": plain("IntlBackslash"), ">": shifted("IntlBackslash"),
		",": plain("KeyM"), "?": shifted("KeyM"),
		";": plain("Comma"), ".": shifted("Comma"),
		":": plain("Period"), "/": shifted("Period"),
		"!": plain("Slash"), "§": shifted("Slash"),
		" ": plain("Space"),
		"€": altGr("KeyE"),
	}
	letters(chars, map[rune]string{'a': "KeyQ", 'q': "KeyA", 'z': "KeyW", 'w': "KeyZ", 'm': "Semicolon"})
	return Definition{Name: "fr_FR", DisplayName: "Français", Chars: chars, Aliases: whitespaceAliases}
}

// Builtin returns the definitions compiled into every Registry.
func Builtin() []Definition {
	return []Definition{enUS(), enGB(), deDE(), frFR()}
}
