package controllers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// overrideMethod resolves the declared method of a request. Browsers
// can only POST multipart forms, so a PUT is signalled through the
// X-HTTP-Method-Override header or a _method form field.
func overrideMethod(c *gin.Context) string {
	if m := c.GetHeader("X-HTTP-Method-Override"); m != "" {
		return strings.ToUpper(m)
	}
	if m := c.PostForm("_method"); m != "" {
		return strings.ToUpper(m)
	}
	return c.Request.Method
}

// intForm reads an optional integer form field. Absent fields yield
// nil; present but non-numeric values are an error.
func intForm(c *gin.Context, name string) (*int, error) {
	v, exists := c.GetPostForm(name)
	if !exists {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer", name)
	}
	return &n, nil
}
