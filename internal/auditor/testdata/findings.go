package testdata

func UndefinedTable() {
	cmd := NewCommand("SELECT * FROM non_existent_table")
	_ = cmd
}

func UndefinedTableInVariable() {
	query := "UPDATE bad_table SET id = 1 WHERE name = 'test';"
	cmd := NewCommand(query)
	_ = cmd
}

func UndefinedColumn() {
	cmd := &Command{}
	cmd.Text = "SELECT nickname FROM users"
}

func BadStatement() {
	cmd := NewCommand("invalid query syntax")
	_ = cmd
}

func MissingStatement() {
	cmd := NewCommand()
	_ = cmd
}
