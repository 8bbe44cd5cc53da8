package sqlinline

const QSelectUploadedAsset = `--sql 5e1a10af-829f-4e1d-9f62-9d725d543b48
select id, role, filename, path, width, height
from uploaded_assets
where role = $1::text and id = $2::text
limit 1;
`

const QInsertUploadedAsset = `--sql d59b6941-7867-4d5d-8b3f-1f4a1d9182af
insert into uploaded_assets(
  id,
  role,
  filename,
  path,
  width,
  height,
  created_at
) values (
  $1::text,
  $2::text,
  $3::text,
  $4::text,
  $5::int,
  $6::int,
  now()
)
on conflict (id) do update set
  role = excluded.role,
  filename = excluded.filename,
  path = excluded.path,
  width = excluded.width,
  height = excluded.height;
`

const QCreateUploadedAssets = `--sql 6fe62992-02b6-41a4-8829-2b9f384182d0
create table if not exists uploaded_assets (
  id text primary key,
  role text not null,
  filename text not null,
  path text not null,
  width int not null default 0,
  height int not null default 0,
  created_at timestamptz not null default now()
);
`
