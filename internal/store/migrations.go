package store

// migration holds a single schema migration with its target version and the
// DDL statements to run. Statements use dialect tokens ({id}, {str}, ...).
type migration struct {
	version int
	stmts   []string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
//
// Member tables reference their container without ON DELETE CASCADE: the
// ordering engine removes members explicitly before the container, and the
// foreign key rejects the reverse order.
var migrations = []migration{
	{
		version: 1,
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS profiles (
	id         {id} PRIMARY KEY,
	email      {str} NOT NULL,
	full_name  {str} NOT NULL,
	avatar_url {str} NOT NULL,
	created_at {time} NOT NULL,
	updated_at {time} NOT NULL
)`,
			`CREATE TABLE IF NOT EXISTS task_lists (
	id         {id} PRIMARY KEY,
	user_id    {id} NOT NULL,
	name       {str} NOT NULL,
	position   INTEGER NOT NULL DEFAULT 0,
	version    INTEGER NOT NULL DEFAULT 1,
	created_at {time} NOT NULL,
	updated_at {time} NOT NULL
)`,
			`CREATE TABLE IF NOT EXISTS tasks (
	id          {id} PRIMARY KEY,
	list_id     {id} NOT NULL REFERENCES task_lists(id),
	user_id     {id} NOT NULL,
	title       {str} NOT NULL,
	description {text},
	completed   INTEGER NOT NULL DEFAULT 0,
	position    INTEGER NOT NULL DEFAULT 0,
	due_date    {time} NULL,
	version     INTEGER NOT NULL DEFAULT 1,
	created_at  {time} NOT NULL,
	updated_at  {time} NOT NULL
)`,
			`CREATE INDEX idx_task_lists_user_position ON task_lists(user_id, position)`,
			`CREATE INDEX idx_tasks_list_position ON tasks(list_id, completed, position)`,
			`CREATE INDEX idx_tasks_user ON tasks(user_id)`,
		},
	},
	{
		version: 2,
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS expense_categories (
	id         {id} PRIMARY KEY,
	user_id    {id} NOT NULL,
	name       {str} NOT NULL,
	icon       {str} NOT NULL,
	color      {str} NOT NULL,
	is_default INTEGER NOT NULL DEFAULT 0,
	position   INTEGER NOT NULL DEFAULT 0,
	version    INTEGER NOT NULL DEFAULT 1,
	created_at {time} NOT NULL,
	updated_at {time} NOT NULL
)`,
			`CREATE TABLE IF NOT EXISTS expenses (
	id           {id} PRIMARY KEY,
	user_id      {id} NOT NULL,
	category_id  {id} NOT NULL REFERENCES expense_categories(id),
	amount       {int} NOT NULL,
	description  {str} NOT NULL,
	expense_date {time} NOT NULL,
	version      INTEGER NOT NULL DEFAULT 1,
	created_at   {time} NOT NULL,
	updated_at   {time} NOT NULL
)`,
			`CREATE TABLE IF NOT EXISTS budgets (
	id           {id} PRIMARY KEY,
	user_id      {id} NOT NULL,
	month        VARCHAR(7) NOT NULL,
	total_budget {int} NOT NULL,
	created_at   {time} NOT NULL,
	updated_at   {time} NOT NULL,
	UNIQUE (user_id, month)
)`,
			`CREATE TABLE IF NOT EXISTS financial_goals (
	id             {id} PRIMARY KEY,
	user_id        {id} NOT NULL,
	title          {str} NOT NULL,
	target_amount  {int} NOT NULL,
	current_amount {int} NOT NULL DEFAULT 0,
	deadline       {time} NOT NULL,
	status         {str} NOT NULL,
	created_at     {time} NOT NULL
)`,
			`CREATE INDEX idx_expense_categories_user ON expense_categories(user_id, position)`,
			`CREATE INDEX idx_expenses_user_date ON expenses(user_id, expense_date)`,
			`CREATE INDEX idx_expenses_category ON expenses(category_id)`,
			`CREATE INDEX idx_goals_user ON financial_goals(user_id)`,
		},
	},
}
