package dashboard

// indexHTML is a self-contained page that polls the three JSON
// endpoints on an interval and renders a card-grid overview, styled
// after the original dashboard's inline layout.
const indexHTML = `<!doctype html>
<html>
<head>
  <meta charset="utf-8">
  <title>postforge</title>
  <style>
    body { font-family: -apple-system, sans-serif; background: #0f1115; color: #e6e6e6; margin: 0; padding: 2rem; }
    h1 { font-weight: 600; }
    .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(260px, 1fr)); gap: 1rem; margin-bottom: 2rem; }
    .card { background: #1a1d24; border-radius: 10px; padding: 1.25rem; border: 1px solid #2a2e38; }
    .card-title { font-size: 0.85rem; color: #9aa0ab; margin-bottom: 0.5rem; }
    .card-value { font-size: 1.8rem; font-weight: 700; }
    .wide-card { grid-column: 1 / -1; }
    table { width: 100%; border-collapse: collapse; font-size: 0.9rem; }
    th, td { text-align: left; padding: 0.4rem 0.6rem; border-bottom: 1px solid #2a2e38; }
    th { color: #9aa0ab; font-weight: 500; }
  </style>
</head>
<body>
  <h1>postforge</h1>
  <div class="grid" id="stats"></div>
  <div class="grid">
    <div class="card wide-card">
      <div class="card-title">Recent posts</div>
      <table id="posts"><thead><tr><th>source</th><th>title</th><th>state</th><th>score</th></tr></thead><tbody></tbody></table>
    </div>
    <div class="card wide-card">
      <div class="card-title">Recent activity</div>
      <table id="activity"><thead><tr><th>time</th><th>post</th><th>action</th><th>detail</th></tr></thead><tbody></tbody></table>
    </div>
  </div>
  <script>
    async function refresh() {
      const [stats, posts, activity] = await Promise.all([
        fetch('/api/stats').then(r => r.json()),
        fetch('/api/posts').then(r => r.json()),
        fetch('/api/activity').then(r => r.json()),
      ]);

      const statsEl = document.getElementById('stats');
      statsEl.innerHTML = '';
      const lifetime = document.createElement('div');
      lifetime.className = 'card';
      lifetime.innerHTML = '<div class="card-title">Lifetime spend</div><div class="card-value">$' + stats.lifetime_spend_usd.toFixed(2) + '</div>';
      statsEl.appendChild(lifetime);
      for (const [state, count] of Object.entries(stats.counts_by_state || {})) {
        const card = document.createElement('div');
        card.className = 'card';
        card.innerHTML = '<div class="card-title">' + state + '</div><div class="card-value">' + count + '</div>';
        statsEl.appendChild(card);
      }

      const postsBody = document.querySelector('#posts tbody');
      postsBody.innerHTML = (posts || []).map(p =>
        '<tr><td>' + p.source + '</td><td>' + p.title + '</td><td>' + p.state + '</td><td>' + p.score + '</td></tr>'
      ).join('');

      const activityBody = document.querySelector('#activity tbody');
      activityBody.innerHTML = (activity || []).map(e =>
        '<tr><td>' + e.timestamp + '</td><td>' + (e.post_id || '') + '</td><td>' + e.action + '</td><td>' + (e.detail || '') + '</td></tr>'
      ).join('');
    }

    refresh();
    setInterval(refresh, 3000);
  </script>
</body>
</html>`
