package sqlite

// solutionSchema recreates the three tables of a solution file.
// itemtype holds the item type snapshot, solution_item one row per tree
// node in pre-order, and store_info the version of the writer.
const solutionSchema = `
DROP TABLE IF EXISTS solution_item;
DROP TABLE IF EXISTS itemtype;
DROP TABLE IF EXISTS store_info;

CREATE TABLE itemtype (
    code INTEGER PRIMARY KEY,
    name TEXT NOT NULL UNIQUE
);

CREATE TABLE solution_item (
    id          INTEGER PRIMARY KEY,
    parent_id   INTEGER REFERENCES solution_item(id),
    position    INTEGER NOT NULL,
    level       INTEGER NOT NULL,
    type_code   INTEGER NOT NULL REFERENCES itemtype(code),
    name        TEXT NOT NULL,
    is_expanded INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX idx_solution_item_parent ON solution_item(parent_id, position);

CREATE TABLE store_info (
    version    TEXT NOT NULL,
    written_at INTEGER NOT NULL
);
`

const (
	insertItemType     = `INSERT INTO itemtype (code, name) VALUES (?, ?)`
	insertSolutionItem = `INSERT INTO solution_item (id, parent_id, position, level, type_code, name, is_expanded) VALUES (?, ?, ?, ?, ?, ?, ?)`
	insertStoreInfo    = `INSERT INTO store_info (version, written_at) VALUES (?, strftime('%s', 'now'))`

	selectItemTypes     = `SELECT code, name FROM itemtype ORDER BY code`
	selectSolutionItems = `SELECT id, parent_id, position, type_code, name, is_expanded FROM solution_item ORDER BY id`
	selectStoreVersion  = `SELECT version FROM store_info ORDER BY written_at DESC LIMIT 1`
	countTable          = `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`
)
