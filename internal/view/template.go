package view

import "html/template"

// timelineTemplate is the /view page. The palette and layout follow the
// companion shortcut's dark theme.
var timelineTemplate = template.Must(template.New("timeline").Parse(`<!doctype html>
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>maimai result</title>
<style>
  :root {
    --bg: #0f172a; --card: #111827; --text: #e5e7eb; --muted: #94a3b8;
    --accent: linear-gradient(135deg,#06b6d4,#8b5cf6);
  }
  * { box-sizing: border-box; }
  body {
    margin:0; font-family:-apple-system,system-ui,Segoe UI,Roboto,'Hiragino Kaku Gothic ProN','Noto Sans JP',sans-serif;
    background: var(--bg); color: var(--text);
    background-image: radial-gradient(ellipse at top, rgba(99,102,241,.15), transparent 40%),
                      radial-gradient(ellipse at bottom, rgba(20,184,166,.15), transparent 40%);
  }
  header {
    display:flex; align-items:center; justify-content:space-between;
    padding:18px 14px; position:sticky; top:0; z-index:10; backdrop-filter: blur(10px);
    background: linear-gradient(180deg, rgba(15,23,42,.85), rgba(15,23,42,.55));
    border-bottom: 1px solid rgba(255,255,255,.06);
  }
  .logo { height:28px; }
  .logo-text { font-weight:800; font-size:20px; background: var(--accent);
               -webkit-background-clip:text; background-clip:text; color:transparent; }
  .toolbar a { color:var(--muted); text-decoration:none; margin-left:14px; font-size:13px; }
  main { padding: 14px; }
  .card { background: var(--card); border:1px solid rgba(255,255,255,.06);
          border-radius:14px; padding: 8px 10px; margin:10px 0 14px;
          box-shadow: 0 6px 20px rgba(0,0,0,.25); }
  h2 { margin:8px 6px 4px; font-size:14px; color:var(--muted); font-weight:600; }
  .list { list-style:none; padding:0; margin:0; }
  .row { display:flex; align-items:center; justify-content:space-between;
          padding:10px 8px; border-top:1px solid rgba(255,255,255,.06); gap:10px; }
  .row:first-child { border-top:none; }
  .left { display:flex; gap:10px; align-items:center; min-width:0; }
  .txt { min-width:0; }
  .left .title { font-size:15px; font-weight:600; white-space:nowrap; overflow:hidden; text-overflow:ellipsis; max-width:62vw; }
  .left .meta  { font-size:12px; color:var(--muted); margin-top:2px; }
  .right { font-variant-numeric: tabular-nums; font-size:16px; font-weight:700; text-align:right; min-width:88px; }
  .jacket { width:44px; height:44px; border-radius:8px; flex:0 0 auto; object-fit:cover;
             border:1px solid rgba(255,255,255,.08); background:#0b1220; }
  .jacket.ph { display:inline-block; background:repeating-linear-gradient(45deg, #0b1220 0 8px, #0e1627 8px 16px); }
  .badge { display:inline-block; padding:2px 6px; border-radius:999px; color:#fff; font-size:11px; margin-left:6px; }
  .badge.remaster { background:#fff; color:#a855f7; border:2px solid #a855f7; padding:1px 6px; }
  .lvl { margin-left:6px; font-size:11px; color:#e5e7eb; opacity:.9; border:1px dashed rgba(255,255,255,.25); border-radius:999px; padding:1px 6px; }
  .new { margin-left:8px; font-size:10px; color:#22c55e; font-weight:700; border:1px solid #22c55e; padding:1px 4px; border-radius:6px; }
  .rk-sssplus { color:#f97316; background:linear-gradient(90deg,#f59e0b,#f43f5e); -webkit-background-clip:text; color:transparent; }
  .rk-sss     { color:#f97316; }
  .rk-ssplus  { color:#eab308; }
  .rk-ss      { color:#facc15; }
  .rk-splus   { color:#06b6d4; }
  .rk-s       { color:#3b82f6; }
  .rk-none    { color:#e5e7eb; }
</style>
<header>
  {{if .LogoURL}}<img src="{{.LogoURL}}" alt="logo" class="logo">{{else}}<div class="logo-text">maimai result</div>{{end}}
  <nav class="toolbar">
    <a href="/data/pretty">JSON</a>
    <a href="/data.csv">CSV</a>
    <a href="/health">health</a>
  </nav>
</header>
<main>
{{range .Groups}}
<section class="card">
  <h2>{{.Date}}</h2>
  <ul class="list">
  {{range .Rows}}
    <li class="row">
      <div class="left">
        {{if .ImageURL}}<img class="jacket" src="{{.ImageURL}}" alt=" " loading="lazy" referrerpolicy="no-referrer">{{else}}<div class="jacket ph"></div>{{end}}
        <div class="txt">
          <div class="title">{{.Title}}
            {{if .Badge.Outlined}}<span class="badge remaster">{{.Badge.Label}}</span>{{else}}<span class="badge" style="background:{{.Badge.Color}}">{{.Badge.Label}}</span>{{end}}
            {{if .Level}}<span class="lvl">{{.Level}}</span>{{end}}
            {{if .IsNew}}<span class="new">NEW</span>{{end}}
          </div>
          <div class="meta">{{.PlayedAt}}</div>
        </div>
      </div>
      <div class="right {{.RateCls}}">{{.RateText}}</div>
    </li>
  {{end}}
  </ul>
</section>
{{else}}
<div class="empty" style="text-align:center;color:#94a3b8;padding:40px 8px;">データがありません。ショートカットから同期してね。</div>
{{end}}
</main>
`))
