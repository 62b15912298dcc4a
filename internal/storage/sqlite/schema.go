package sqlite

// Database schema. Boards own tickets; tickets own comments,
// activities, and attachments; snapshots hang off boards. Ownership is
// exclusive, so deletes cascade down the tree. Labels, assignees, and
// custom fields are stored as JSON text columns.
const schema = `
CREATE TABLE IF NOT EXISTS boards (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT DEFAULT '',
	workflow_id TEXT DEFAULT 'kanban',
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS tickets (
	id TEXT PRIMARY KEY,
	board_id TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT DEFAULT '',
	status TEXT DEFAULT 'backlog',
	priority TEXT DEFAULT 'medium',
	labels TEXT DEFAULT '[]',
	assignees TEXT DEFAULT '[]',
	parent_id TEXT,
	custom_fields TEXT DEFAULT '{}',
	position INTEGER DEFAULT 0,
	due_date DATETIME,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY (board_id) REFERENCES boards(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS comments (
	id TEXT PRIMARY KEY,
	ticket_id TEXT NOT NULL,
	author TEXT NOT NULL,
	content TEXT NOT NULL,
	parent_id TEXT,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (ticket_id) REFERENCES tickets(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS activities (
	id TEXT PRIMARY KEY,
	ticket_id TEXT NOT NULL,
	actor TEXT NOT NULL,
	action TEXT NOT NULL,
	changes TEXT DEFAULT '{}',
	created_at DATETIME NOT NULL,
	FOREIGN KEY (ticket_id) REFERENCES tickets(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS workflows (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	states TEXT NOT NULL,
	transitions TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS attachments (
	id TEXT PRIMARY KEY,
	ticket_id TEXT NOT NULL,
	filename TEXT NOT NULL,
	original_filename TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	size_bytes INTEGER NOT NULL,
	storage_path TEXT NOT NULL,
	uploaded_by TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (ticket_id) REFERENCES tickets(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS status_snapshots (
	id TEXT PRIMARY KEY,
	board_id TEXT NOT NULL,
	snapshot_date TEXT NOT NULL,
	status TEXT NOT NULL,
	count INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (board_id) REFERENCES boards(id) ON DELETE CASCADE,
	UNIQUE(board_id, snapshot_date, status)
);

CREATE INDEX IF NOT EXISTS idx_tickets_board ON tickets(board_id);
CREATE INDEX IF NOT EXISTS idx_tickets_status ON tickets(status);
CREATE INDEX IF NOT EXISTS idx_tickets_parent ON tickets(parent_id);
CREATE INDEX IF NOT EXISTS idx_comments_ticket ON comments(ticket_id);
CREATE INDEX IF NOT EXISTS idx_activities_ticket ON activities(ticket_id);
CREATE INDEX IF NOT EXISTS idx_attachments_ticket ON attachments(ticket_id);
CREATE INDEX IF NOT EXISTS idx_snapshots_board_date ON status_snapshots(board_id, snapshot_date);
`
