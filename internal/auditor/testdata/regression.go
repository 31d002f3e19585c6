package testdata

func QueryInConstructor() {
	cmd := NewCommand(`
		SELECT users.id, users.username, users.is_admin, users.created_at, posts.id, posts.title, posts.body, posts.created_at, user_posts.user_id, user_posts.post_id
		FROM users
		JOIN user_posts ON user_posts.user_id = users.id
		JOIN posts ON posts.id = user_posts.post_id;
	`)
	_ = cmd
}

func QueryAsVariable() {
	query := `
		SELECT users.id, users.username, users.is_admin, users.created_at, posts.id, posts.title, posts.body, posts.created_at, user_posts.user_id, user_posts.post_id
		FROM users
		JOIN user_posts ON user_posts.user_id = users.id
		JOIN posts ON posts.id = user_posts.post_id;
	`
	cmd := NewCommand(query)
	_ = cmd
}

func QueryAsReassignedVariable() {
	query := "invalid query syntax"

	query = `
		SELECT users.id, users.username, users.is_admin, users.created_at, posts.id, posts.title, posts.body, posts.created_at, user_posts.user_id, user_posts.post_id
		FROM users
		JOIN user_posts ON user_posts.user_id = users.id
		JOIN posts ON posts.id = user_posts.post_id;
	`
	cmd := NewCommand(query)
	_ = cmd
}

func QueryWithParameters() {
	cmd := NewCommand("SELECT id FROM users WHERE username = @name AND is_admin = @admin")
	_ = cmd
}
