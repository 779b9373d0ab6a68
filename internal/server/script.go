package server

import (
	"regexp"
	"strings"
)

var closingBody = regexp.MustCompile(`(?i)</body\s*>`)

// ReloadPath is the websocket endpoint of the live reload client.
const ReloadPath = "/__pages/reload"

// ReloadScript is injected into every HTML page served in development.
const ReloadScript = `<script>
(function() {
    'use strict';

    var reconnectDelay = 1000;
    var maxReconnectDelay = 30000;
    var overlayId = 'pages-error-overlay';

    function connect() {
        var protocol = location.protocol === 'https:' ? 'wss:' : 'ws:';
        var ws = new WebSocket(protocol + '//' + location.host + '` + ReloadPath + `');

        ws.onopen = function() {
            reconnectDelay = 1000;
        };

        ws.onmessage = function(e) {
            var msg;
            try {
                msg = JSON.parse(e.data);
            } catch (err) {
                return;
            }

            switch (msg.type) {
                case 'reload':
                    location.reload();
                    break;
                case 'css':
                    reloadCSS();
                    break;
                case 'error':
                    console.error('[pages] build error:', msg.error);
                    showErrorOverlay(msg.error);
                    break;
                case 'clear':
                    clearErrorOverlay();
                    break;
            }
        };

        ws.onclose = function() {
            setTimeout(function() {
                reconnectDelay = Math.min(reconnectDelay * 2, maxReconnectDelay);
                connect();
            }, reconnectDelay);
        };

        ws.onerror = function() {
            ws.close();
        };
    }

    function reloadCSS() {
        var links = document.querySelectorAll('link[rel="stylesheet"]');
        links.forEach(function(link) {
            var url = new URL(link.href);
            url.searchParams.set('_reload', Date.now());
            link.href = url.toString();
        });
    }

    function showErrorOverlay(error) {
        clearErrorOverlay();
        var overlay = document.createElement('div');
        overlay.id = overlayId;
        overlay.style.cssText = 'position:fixed;top:0;left:0;right:0;bottom:0;background:rgba(0,0,0,0.9);color:#fff;font-family:monospace;font-size:14px;padding:20px;overflow:auto;z-index:999999;';
        var pre = document.createElement('pre');
        pre.style.cssText = 'white-space:pre-wrap;word-wrap:break-word;';
        pre.textContent = error;
        overlay.appendChild(pre);
        document.body.appendChild(overlay);
    }

    function clearErrorOverlay() {
        var overlay = document.getElementById(overlayId);
        if (overlay) {
            overlay.remove();
        }
    }

    if (document.readyState === 'loading') {
        document.addEventListener('DOMContentLoaded', connect);
    } else {
        connect();
    }
})();
</script>
`

// InjectScript inserts the reload client before the closing body tag, or at
// the end of documents without one.
func InjectScript(page []byte) []byte {
	all := closingBody.FindAllIndex(page, -1)
	if len(all) == 0 {
		return append(page[:len(page):len(page)], ReloadScript...)
	}
	idx := all[len(all)-1][0]
	var b strings.Builder
	b.Grow(len(page) + len(ReloadScript))
	b.Write(page[:idx])
	b.WriteString(ReloadScript)
	b.Write(page[idx:])
	return []byte(b.String())
}
