package commands

type Command struct {
	Text string
}

func NewCommand(text ...string) *Command {
	var c Command
	if len(text) > 0 {
		c.Text = text[0]
	}
	return &c
}

func literal() {
	ok := NewCommand("SELECT id FROM users")
	bad := NewCommand("SELECT * FROM non_existent_table") // want `PSCA1001: Table 'non_existent_table' does not exist.`
	_, _ = ok, bad
}

func variable() {
	query := "SELECT nickname FROM users" // want `PSCA1002: Column 'nickname' does not exist.`
	cmd := NewCommand(query)
	_ = cmd
}

func property() {
	cmd := &Command{}
	cmd.Text = "invalid query syntax" // want `PSCA1000: ERROR: syntax error at or near "invalid"`
}

func missing() {
	cmd := NewCommand() // want `PSCA1100: Provide a SQL statement via the constructor or the text property.`
	_ = cmd
}

func opaque(q string) {
	_ = NewCommand(q)
}
