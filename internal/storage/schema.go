package storage

const schema = `
-- Users and their course associations. Authentication lives upstream; this
-- service only needs identity and enrollment.
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    email TEXT NOT NULL UNIQUE,
    created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS courses (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    code TEXT NOT NULL UNIQUE,
    created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS enrollments (
    user_id INTEGER NOT NULL,
    course_id INTEGER NOT NULL,

    PRIMARY KEY (user_id, course_id),
    FOREIGN KEY (user_id) REFERENCES users(id),
    FOREIGN KEY (course_id) REFERENCES courses(id)
);

-- Flashcards carry their review state inline. hash and source_id are set only
-- for cards imported from a deck source; hand-created cards leave them NULL.
CREATE TABLE IF NOT EXISTS flashcards (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    front TEXT NOT NULL,
    back TEXT NOT NULL,
    context TEXT NOT NULL DEFAULT '',
    difficulty INTEGER NOT NULL DEFAULT 0,
    review_count INTEGER NOT NULL DEFAULT 0,
    next_review DATETIME NOT NULL,
    created_at DATETIME NOT NULL,
    hash TEXT,
    source_id INTEGER,

    FOREIGN KEY (user_id) REFERENCES users(id),
    FOREIGN KEY (source_id) REFERENCES deck_sources(id)
);

CREATE INDEX IF NOT EXISTS idx_flashcards_user ON flashcards(user_id);
-- A card hash identifies content within one source; the same deck registered
-- by two users must yield a card for each.
CREATE UNIQUE INDEX IF NOT EXISTS idx_flashcards_source_hash ON flashcards(source_id, hash) WHERE hash IS NOT NULL;

-- The schedule column holds the allocator output stamped with dates, as JSON.
CREATE TABLE IF NOT EXISTS study_plans (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    title TEXT NOT NULL,
    exam_date DATETIME NOT NULL,
    schedule TEXT NOT NULL,
    created_at DATETIME NOT NULL,

    FOREIGN KEY (user_id) REFERENCES users(id)
);

-- Partner workflow: user1 requested, user2 decides. status is one of
-- 'pending', 'accepted', 'rejected'.
CREATE TABLE IF NOT EXISTS study_partners (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user1_id INTEGER NOT NULL,
    user2_id INTEGER NOT NULL,
    match_score REAL NOT NULL DEFAULT 0,
    shared_courses INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL DEFAULT 'pending',
    created_at DATETIME NOT NULL,

    FOREIGN KEY (user1_id) REFERENCES users(id),
    FOREIGN KEY (user2_id) REFERENCES users(id)
);

-- Deck sources are local directories or git remotes holding markdown decks.
CREATE TABLE IF NOT EXISTS deck_sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    path TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL,
    last_scanned DATETIME,

    FOREIGN KEY (user_id) REFERENCES users(id)
);
`
