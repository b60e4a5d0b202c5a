// Package http serves rendered storefront pages.
//
// Requests are routed to a store by host name using the configured store
// routes. The store's published theme renders unless the request carries a
// preview_theme_id query parameter. Not-found templates answer with 404.
//
// Host applications can mount the handler on their own router.
package http
