package routestack_test

import (
	"context"
	"fmt"
	"net/http/httptest"

	"github.com/randalmurphal/routestack/pkg/routestack"
)

func ExampleStack() {
	stack := routestack.New()

	stack.AddRoute("home", routestack.NewLiteral("/", nil))
	user, _ := routestack.NewSegment("/user/:id", map[string]string{"id": `\d+`}, nil)
	stack.AddRoute("user", user)
	stack.AddRoute("admin", routestack.NewLiteral("/admin", nil), routestack.WithPriority(10))

	for name := range stack.Routes() {
		fmt.Println(name)
	}

	m, _ := stack.Match(context.Background(), httptest.NewRequest("GET", "/user/42", nil))
	fmt.Println(m.RouteName, m.Params["id"])

	path, _ := stack.Assemble("user", map[string]string{"id": "7"})
	fmt.Println(path)
	// Output:
	// admin
	// user
	// home
	// user 42
	// /user/7
}
