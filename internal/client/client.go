// Package client generates the transport helper module that every endpoint
// module imports: a fetch-based `call(method, path, params?, init?)` plus the
// ClientRequestInit options type.
package client

import (
	"context"

	"goa.design/clue/log"

	"github.com/mark3labs/oas2ts/internal/pipeline"
	"github.com/mark3labs/oas2ts/internal/tsast"
)

// Plugin adds the transport helper module to the run's sources.
type Plugin struct{}

func (Plugin) Name() string { return "client" }

func (Plugin) Execute(ctx context.Context, st *pipeline.Storage) error {
	log.Debug(ctx, log.KV{K: "msg", V: "generating transport helper"}, log.KV{K: "path", V: st.ClientFile})
	st.AddSources(&tsast.File{Path: st.ClientFile, Raw: Template})
	return nil
}

// Template is the fixed source of the transport helper. Path placeholders are
// substituted from params first; the remaining params become the query
// string of GET, DELETE and HEAD requests and the JSON body of any other.
const Template = `type RequestParams = Record<string, unknown>;

export interface ClientRequestInit {
  signal?: AbortSignal;
  headers?: Record<string, string>;
}

function createClient(baseUrl: string) {
  return {
    async call(
      method: string,
      path: string,
      params?: RequestParams,
      init?: ClientRequestInit,
    ): Promise<any> {
      let url = ` + "`${baseUrl}${path}`" + `;
      const options: globalThis.RequestInit = {
        method,
        signal: init?.signal,
        headers: { ...init?.headers },
      };

      if (params) {
        const remaining: RequestParams = { ...params };

        for (const [key, value] of Object.entries(remaining)) {
          if (url.includes(` + "`{${key}}`" + `)) {
            url = url.replace(` + "`{${key}}`" + `, encodeURIComponent(String(value)));
            delete remaining[key];
          }
        }

        const hasRemaining = Object.keys(remaining).length > 0;

        if (hasRemaining && (method === 'GET' || method === 'DELETE' || method === 'HEAD')) {
          const searchParams = new URLSearchParams();
          for (const [key, value] of Object.entries(remaining)) {
            if (value !== undefined && value !== null) {
              searchParams.set(key, String(value));
            }
          }
          const qs = searchParams.toString();
          if (qs) {
            url += ` + "`?${qs}`" + `;
          }
        } else if (hasRemaining) {
          (options.headers as Record<string, string>)['Content-Type'] = 'application/json';
          options.body = JSON.stringify(remaining);
        }
      }

      const response = await fetch(url, options);

      if (!response.ok) {
        throw new Error(` + "`HTTP ${response.status}: ${response.statusText}`" + `);
      }

      if (response.status === 204 || response.headers.get('content-length') === '0') {
        return undefined;
      }

      const contentType = response.headers.get('content-type');
      if (contentType?.includes('application/json')) {
        return response.json();
      }

      return response.text();
    },
  };
}

const client = createClient('');
export default client;
`
