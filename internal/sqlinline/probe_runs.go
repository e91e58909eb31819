package sqlinline

const QEnsureProbeRuns = `--sql ef58f8b2-c414-4f92-bb1e-cc5c15393c72
create table if not exists probe_runs (
    id uuid primary key,
    started_at timestamptz not null,
    finished_at timestamptz not null,
    dry_run boolean not null,
    base_url text not null,
    total int not null,
    passed int not null,
    failed int not null,
    skipped int not null,
    exit_code int not null,
    results jsonb not null default '[]'::jsonb
);
`

const QInsertProbeRun = `--sql 4b2f3089-aebe-44a9-a152-8f97b3c2d261
insert into probe_runs (id, started_at, finished_at, dry_run, base_url, total, passed, failed, skipped, exit_code, results)
values ($1::uuid, $2::timestamptz, $3::timestamptz, $4::boolean, $5::text, $6::int, $7::int, $8::int, $9::int, $10::int, coalesce($11::jsonb, '[]'::jsonb));
`
