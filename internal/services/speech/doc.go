// Package speech transcribes livestream audio through the OpenAI audio API.
// Responses are requested in verbose_json so per-segment timestamps survive
// for transcript fusion.
package speech
