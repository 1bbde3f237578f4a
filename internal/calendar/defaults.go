package calendar

// Default returns the built-in session table covering the exchanges the
// upstream API serves. A configured calendar file replaces it entirely.
func Default() *Calendar {
	c, err := New(defaultFile())
	if err != nil {
		// The built-in table is static; a failure here is a programming error.
		panic(err)
	}
	return c
}

func defaultFile() File {
	return File{Exchanges: map[string]ExchangeSpec{
		"TGT": germanExchange("Direkthandel", "08:00", "22:00", true),
		"FRA": germanExchange("Frankfurt", "08:00", "22:00", false),
		"STU": germanExchange("Stuttgart", "08:00", "22:00", false),
		"DUS": germanExchange("Düsseldorf", "08:00", "20:00", false),
		"ETR": germanExchange("XETRA", "09:00", "17:30", true),
		"MUC": germanExchange("München", "08:00", "22:00", false),
		"BEB": germanExchange("Berlin", "08:00", "20:00", false),
		"HAM": germanExchange("Hamburg", "08:00", "22:00", false),
		"HAJ": germanExchange("Hannover", "08:00", "22:00", false),
		"UTC": usExchange("Nasdaq"),
		"USC": usExchange("New York Stock Exchange"),
	}}
}

func germanExchange(name, open, close string, realtime bool) ExchangeSpec {
	return ExchangeSpec{
		Name:     name,
		TZ:       "Europe/Berlin",
		Realtime: realtime,
		Sessions: weekdaySessions(open, close),
	}
}

func usExchange(name string) ExchangeSpec {
	return ExchangeSpec{
		Name:     name,
		TZ:       "America/New_York",
		Sessions: weekdaySessions("09:30", "16:00"),
	}
}

func weekdaySessions(open, close string) map[string]Window {
	w := Window{Open: open, Close: close}
	return map[string]Window{
		"mon": w, "tue": w, "wed": w, "thu": w, "fri": w,
	}
}
