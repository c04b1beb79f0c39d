package postgres

// ══════════════════════════════════════════════════════════════════════════════
// EMBEDDED MIGRATIONS
// Catalog data is reference data replaced per academic year by the ingestion
// pipeline; plans and fulfillments are the mutable side.
// ══════════════════════════════════════════════════════════════════════════════

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_catalog",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_programs",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_plans",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
		{
			Version: 4,
			Name:    "create_fulfillments",
			UpSQL:   migration004Up,
			DownSQL: migration004Down,
		},
	}
}

const migration001Up = `
CREATE TABLE IF NOT EXISTS catalog_courses (
    id               UUID PRIMARY KEY,
    academic_year_id TEXT NOT NULL,
    subject_code     TEXT NOT NULL,
    course_number    TEXT NOT NULL,
    name             TEXT NOT NULL DEFAULT '',
    min_credits      NUMERIC(4,1) NOT NULL DEFAULT 0,
    max_credits      NUMERIC(4,1) NOT NULL DEFAULT 0,
    axle_attributes  TEXT[] NOT NULL DEFAULT '{}',
    core_attributes  TEXT[] NOT NULL DEFAULT '{}',
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CONSTRAINT catalog_courses_credits_check CHECK (min_credits >= 0 AND max_credits >= min_credits)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_catalog_courses_year_code
    ON catalog_courses (academic_year_id, subject_code, course_number);

CREATE INDEX IF NOT EXISTS idx_catalog_courses_year_subject
    ON catalog_courses (academic_year_id, subject_code);

CREATE TABLE IF NOT EXISTS classes (
    id               UUID PRIMARY KEY,
    course_id        UUID NOT NULL REFERENCES catalog_courses(id) ON DELETE CASCADE,
    term             TEXT NOT NULL,
    min_credits      NUMERIC(4,1),
    max_credits      NUMERIC(4,1),
    axle_attributes  TEXT[],
    core_attributes  TEXT[],
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_classes_course ON classes (course_id);
`

const migration001Down = `
DROP TABLE IF EXISTS classes;
DROP TABLE IF EXISTS catalog_courses;
`

const migration002Up = `
CREATE TABLE IF NOT EXISTS programs (
    id           UUID PRIMARY KEY,
    school_id    TEXT NOT NULL,
    name         TEXT NOT NULL,
    kind         TEXT NOT NULL DEFAULT 'major',
    requirements JSONB NOT NULL DEFAULT '{"sections": []}',
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_programs_school ON programs (school_id);
`

const migration002Down = `
DROP TABLE IF EXISTS programs;
`

const migration003Up = `
CREATE TABLE IF NOT EXISTS plans (
    id               UUID PRIMARY KEY,
    student_id       TEXT NOT NULL,
    academic_year_id TEXT NOT NULL,
    name             TEXT NOT NULL DEFAULT '',
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_plans_student ON plans (student_id);

CREATE TABLE IF NOT EXISTS planned_courses (
    id         UUID PRIMARY KEY,
    plan_id    UUID NOT NULL REFERENCES plans(id) ON DELETE CASCADE,
    semester   INTEGER NOT NULL DEFAULT 1,
    position   INTEGER NOT NULL DEFAULT 0,
    course_id  UUID REFERENCES catalog_courses(id) ON DELETE SET NULL,
    class_id   UUID REFERENCES classes(id) ON DELETE SET NULL,
    credits    NUMERIC(4,1),

    CONSTRAINT planned_courses_reference_check CHECK (course_id IS NOT NULL OR class_id IS NOT NULL)
);

CREATE INDEX IF NOT EXISTS idx_planned_courses_plan_order
    ON planned_courses (plan_id, semester, position);

CREATE TABLE IF NOT EXISTS plan_programs (
    id         UUID PRIMARY KEY,
    plan_id    UUID NOT NULL REFERENCES plans(id) ON DELETE CASCADE,
    program_id UUID NOT NULL REFERENCES programs(id) ON DELETE CASCADE,
    linked_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CONSTRAINT plan_programs_unique UNIQUE (plan_id, program_id)
);

CREATE INDEX IF NOT EXISTS idx_plan_programs_plan ON plan_programs (plan_id);
`

const migration003Down = `
DROP TABLE IF EXISTS plan_programs;
DROP TABLE IF EXISTS planned_courses;
DROP TABLE IF EXISTS plans;
`

const migration004Up = `
CREATE TABLE IF NOT EXISTS fulfillments (
    id                UUID PRIMARY KEY,
    plan_program_id   UUID NOT NULL REFERENCES plan_programs(id) ON DELETE CASCADE,
    requirement_key   TEXT NOT NULL,
    planned_course_id UUID NOT NULL REFERENCES planned_courses(id) ON DELETE CASCADE,
    credits_applied   NUMERIC(4,1) NOT NULL DEFAULT 0,
    created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CONSTRAINT fulfillments_unique_assignment UNIQUE (plan_program_id, requirement_key, planned_course_id)
);

CREATE INDEX IF NOT EXISTS idx_fulfillments_link ON fulfillments (plan_program_id);
CREATE INDEX IF NOT EXISTS idx_fulfillments_requirement ON fulfillments (plan_program_id, requirement_key);
`

const migration004Down = `
DROP TABLE IF EXISTS fulfillments;
`
